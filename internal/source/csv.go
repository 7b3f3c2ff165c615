package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"shelfsync/internal/domain"
)

// Column headers of the exported form sheet. Matching is case-insensitive
// and tolerant of surrounding whitespace; optional columns may be absent.
const (
	colBorrower  = "borrower_name"
	colCategory  = "category"
	colLabel     = "label"
	colAction    = "action"
	colTimestamp = "timestamp"
	colDate      = "date"
	colNotes     = "notes"
)

// timestampLayouts are tried in order for the client timestamp column. The
// sheet export writes RFC 3339; hand-edited cells tend to be the space form.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

const dateLayout = "2006-01-02"

// CSVSource reads raw rows from a CSV export of the form sheet.
type CSVSource struct {
	path string
}

func NewCSV(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Rows(ctx context.Context) ([]domain.RawRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the header row, maps columns by name and extracts one RawRow
// per record. Unparseable timestamps are carried as absent rather than
// failing the read: the normalizer decides whether the row still has a
// usable effective time.
func Parse(r io.Reader) ([]domain.RawRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colBorrower, colCategory, colLabel, colAction} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("source missing column %q", required)
		}
	}

	var rows []domain.RawRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		row := domain.RawRow{
			Ref:           fmt.Sprintf("row:%d", line),
			BorrowerName:  field(record, cols, colBorrower),
			CategoryCode:  field(record, cols, colCategory),
			LabelRaw:      field(record, cols, colLabel),
			ActionKeyword: field(record, cols, colAction),
			Notes:         field(record, cols, colNotes),
		}
		if raw := field(record, cols, colTimestamp); raw != "" {
			if ts, ok := parseTimestamp(raw); ok {
				row.ClientTimestamp = &ts
			}
		}
		if raw := field(record, cols, colDate); raw != "" {
			if d, err := time.ParseInLocation(dateLayout, raw, time.UTC); err == nil {
				row.ManualDate = &d
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
