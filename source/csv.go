package source

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/godeepar/tsgeojson/record"
)

// ReadCSV reads a header row followed by one record per row. Cell types are
// inferred: integer, then float, then true/false, then string. Empty cells
// are absent.
func ReadCSV(contents io.Reader, idProperty string) ([]record.Record, error) {
	raw, err := csv.NewReader(contents).ReadAll()
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, errors.New("no header row in csv data")
	}

	headers := raw[0]
	records := make([]record.Record, 0, len(raw)-1)

	for i, row := range raw[1:] {
		ts := record.NewTimeSeries("")
		for j, header := range headers {
			var cell string
			if j < len(row) {
				cell = row[j]
			}
			ts.Set(header, ParseCell(cell))
		}
		identify(ts, idProperty, i+1)
		records = append(records, ts)
	}

	return records, nil
}

// ParseCell infers the value type of one text cell
func ParseCell(cell string) record.Value {
	s := strings.TrimSpace(cell)
	if s == "" {
		return record.Value{}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return record.IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return record.FloatValue(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return record.BoolValue(true)
	case "false":
		return record.BoolValue(false)
	}
	return record.StringValue(cell)
}
