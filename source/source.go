// Package source loads time series records from files and databases.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/godeepar/tsgeojson/record"
)

// Format names a record source
type Format string

const (
	FormatCSV       Format = "csv"
	FormatYAML      Format = "yaml"
	FormatJSON      Format = "json"
	FormatGeoJSON   Format = "geojson"
	FormatShapefile Format = "shp"
	FormatSQLite    Format = "sqlite"
)

// Options says where records come from
type Options struct {
	Format Format
	Path   string
	// Table or Query select the rows of a SQLite source, Query wins
	Table string
	Query string
	// IDProperty names the property used as the record identifier
	IDProperty string
	// ShapeProperty, when set, receives a shapefile record's geometry as WKT
	ShapeProperty string
}

// DetectFormat guesses the format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".geojson":
		return FormatGeoJSON, nil
	case ".shp", ".dbf":
		return FormatShapefile, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("cannot tell the record format of %q, set it explicitly", path)
}

// Load reads every record of the configured source
func Load(opts Options) ([]record.Record, error) {
	format := opts.Format
	if format == "" {
		var err error
		if format, err = DetectFormat(opts.Path); err != nil {
			return nil, err
		}
	}

	var records []record.Record
	var err error

	switch format {
	case FormatCSV, FormatYAML, FormatJSON, FormatGeoJSON:
		f, ferr := os.Open(opts.Path)
		if ferr != nil {
			return nil, ferr
		}
		defer f.Close()
		opts.Format = format
		records, err = Read(f, opts)
	case FormatShapefile:
		records, err = LoadShapefile(opts.Path, opts.IDProperty, opts.ShapeProperty)
	case FormatSQLite:
		records, err = LoadSQLite(opts.Path, opts.Table, opts.Query, opts.IDProperty)
	default:
		return nil, fmt.Errorf("unsupported record format %q", format)
	}

	if err != nil {
		return nil, fmt.Errorf("[Load] in pkg [source] encountered: %v", err)
	}

	logrus.WithField("path", opts.Path).WithField("format", format).Debugf("loaded %d time series", len(records))
	return records, nil
}

// Read decodes records in opts.Format from a stream, opts.Path is ignored.
// Only text formats can be streamed.
func Read(r io.Reader, opts Options) ([]record.Record, error) {
	switch opts.Format {
	case FormatCSV:
		return ReadCSV(r, opts.IDProperty)
	case FormatYAML, FormatJSON:
		return ReadYAML(r, opts.IDProperty)
	case FormatGeoJSON:
		return ReadGeoJSON(r, opts.IDProperty, opts.ShapeProperty)
	}
	return nil, fmt.Errorf("record format %q cannot be read from a stream", opts.Format)
}

// identify fills in the record identifier from idProperty, or from the
// record's 1-based position when the property is missing.
func identify(ts *record.TimeSeries, idProperty string, n int) {
	if ts.ID != "" {
		return
	}
	if idProperty != "" {
		if v := ts.Property(idProperty); !v.IsAbsent() {
			ts.ID = v.String()
			return
		}
	}
	ts.ID = fmt.Sprintf("record-%d", n)
}
