package importer

import (
	"io"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readSource reads the full source text, honoring a UTF-8 or UTF-16 byte
// order mark if present. Exports from other devices frequently carry one.
func readSource(r io.Reader) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", eris.Wrap(err, "importer: read source")
	}
	if !utf8.Valid(data) {
		return "", eris.New("importer: source is not valid text")
	}
	return string(data), nil
}
