package importer

import (
	"time"

	"github.com/pocketlog/pocketlog/internal/model"
)

// DedupKey computes the identity key for a check-in: the instant floored
// to the minute (in UTC, so native and offset-bearing sources agree) plus
// the lower-cased event name. Two records sharing this key are the same
// logical check-in.
func DedupKey(ts time.Time, name string) string {
	return ts.UTC().Truncate(time.Minute).Format(time.RFC3339) + "|" + normalize(name)
}

// KeySet tracks dedup keys seen so far in a run. It is seeded from every
// stored event before the first candidate is tested, which makes importing
// the same file twice a no-op.
type KeySet struct {
	keys map[string]struct{}
}

// NewKeySet returns an empty key set.
func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]struct{})}
}

// Seed registers the keys of already-stored events.
func (s *KeySet) Seed(events []model.Event) {
	for _, ev := range events {
		s.keys[DedupKey(ev.OccurredAt, ev.Name)] = struct{}{}
	}
}

// Insert registers the key and reports whether it was new. A false return
// means the candidate is a duplicate of a stored event or of an earlier
// candidate in the same batch; the earliest occurrence always wins.
func (s *KeySet) Insert(key string) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Len returns the number of registered keys.
func (s *KeySet) Len() int {
	return len(s.keys)
}
