package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/pocketlog/pocketlog/internal/model"
)

// Candidate is a decoded, not-yet-committed representation of one
// importable record.
type Candidate struct {
	OccurredAt   time.Time
	Name         string
	Category     string
	Icon         string
	Color        string
	Note         string
	Geo          *model.GeoPoint
	LocationName string
	Address      string
}

// Native tabular export columns.
const (
	colDate = iota
	colTime
	colName
	colCategory
	colIcon
	colColor
	colNotes
	colLatitude
	colLongitude
	colLocation
	colAddress

	nativeNumFields = 11
	minRowFields    = 6
)

const (
	placeholderName     = "Imported Event"
	placeholderCategory = "Uncategorized"
)

// Decoder turns parsed field lists into Candidates. Layout lists are tried
// in order; the device locale is never consulted, so an export made with
// the same configuration always round-trips.
type Decoder struct {
	dateLayouts []string
	timeLayouts []string
}

// NewDecoder creates a Decoder. Empty layout lists fall back to the
// defaults the exporter writes.
func NewDecoder(dateLayouts, timeLayouts []string) *Decoder {
	if len(dateLayouts) == 0 {
		dateLayouts = []string{"1/2/2006", "01/02/2006", "2006-01-02"}
	}
	if len(timeLayouts) == 0 {
		timeLayouts = []string{"3:04 PM", "3:04PM", "15:04"}
	}
	return &Decoder{dateLayouts: dateLayouts, timeLayouts: timeLayouts}
}

// DecodeRow decodes one native tabular row. The second return value is
// false when the row must be dropped (unparseable date); dropped rows are
// counted as neither imported nor skipped.
func (d *Decoder) DecodeRow(fields []string) (*Candidate, bool) {
	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	day, ok := d.parseDate(field(colDate))
	if !ok {
		return nil, false
	}

	hour, minute := d.parseTime(field(colTime))
	// The date supplies the calendar day, the time supplies hour and
	// minute; seconds are always zero.
	occurred := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)

	name := field(colName)
	if name == "" {
		name = placeholderName
	}
	category := field(colCategory)
	if category == "" {
		category = placeholderCategory
	}

	return &Candidate{
		OccurredAt:   occurred,
		Name:         name,
		Category:     category,
		Icon:         field(colIcon),
		Color:        field(colColor),
		Note:         restoreText(field(colNotes)),
		Geo:          parseGeo(field(colLatitude), field(colLongitude)),
		LocationName: field(colLocation),
		Address:      restoreText(field(colAddress)),
	}, true
}

func (d *Decoder) parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range d.dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseTime returns hour and minute, falling back to a manual clock parser
// when no layout matches. An unparseable time is midnight, not a dropped
// row.
func (d *Decoder) parseTime(s string) (int, int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0
	}
	for _, layout := range d.timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute()
		}
	}
	if h, m, ok := parseClock(s); ok {
		return h, m
	}
	return 0, 0
}

// parseClock accepts "H:MM" and "H:MM AM/PM" tokens.
func parseClock(s string) (int, int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))

	meridiem := ""
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(s, suffix) {
			meridiem = suffix
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}

	switch meridiem {
	case "AM":
		if hour > 12 {
			return 0, 0, false
		}
		hour %= 12
	case "PM":
		if hour > 12 {
			return 0, 0, false
		}
		hour = hour%12 + 12
	}
	return hour, minute, true
}

// parseGeo returns a coordinate pair, or nil unless both fields are
// numeric. A half-populated pair is never produced.
func parseGeo(latStr, lonStr string) *model.GeoPoint {
	latStr = strings.TrimSpace(latStr)
	lonStr = strings.TrimSpace(lonStr)
	if latStr == "" || lonStr == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil
	}
	return &model.GeoPoint{Lat: lat, Lon: lon}
}

// restoreText reverses the exporter's comma substitution in free-text
// fields (semicolon back to comma). Newlines were replaced with spaces at
// export time and cannot be recovered; that round-trip is deliberately
// lossy.
func restoreText(s string) string {
	return strings.ReplaceAll(s, ";", ",")
}
