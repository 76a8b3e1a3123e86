// Package export serializes the event log back into the native tabular
// format the importer consumes.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pocketlog/pocketlog/internal/model"
)

// Header is the fixed native-format column list.
var Header = []string{
	"Date", "Time", "Event", "Category", "Icon", "Color",
	"Notes", "Latitude", "Longitude", "Location", "Address",
}

// Options configures the serializer. The layouts must be ones the importer
// is configured to parse, or the export will not round-trip.
type Options struct {
	DateLayout string
	TimeLayout string
}

// WriteCSV writes the events in the native tabular format. Free-text
// fields have commas substituted with semicolons and newlines with spaces
// before writing, so no field ever needs quoting; the importer reverses
// the comma substitution on the way back in.
func WriteCSV(w io.Writer, events []model.Event, opts Options) error {
	if opts.DateLayout == "" {
		opts.DateLayout = "1/2/2006"
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = "3:04 PM"
	}

	if _, err := fmt.Fprintln(w, strings.Join(Header, ",")); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for _, ev := range events {
		var lat, lon string
		if ev.Geo != nil {
			lat = strconv.FormatFloat(ev.Geo.Lat, 'f', -1, 64)
			lon = strconv.FormatFloat(ev.Geo.Lon, 'f', -1, 64)
		}

		row := []string{
			ev.OccurredAt.Format(opts.DateLayout),
			ev.OccurredAt.Format(opts.TimeLayout),
			sanitize(ev.Name),
			sanitize(ev.CategoryName),
			ev.Icon,
			ev.ColorHex,
			sanitize(ev.Note),
			lat,
			lon,
			sanitize(ev.LocationName),
			sanitize(ev.Address),
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, ",")); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	return nil
}

// sanitize substitutes the characters that would break the unquoted
// format. The newline substitution is lossy on purpose.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, ",", ";")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
