// Package convert writes time series records as a GeoJSON FeatureCollection.
//
// Each record becomes at most one Feature. Its geometry comes either from a
// well-known-text property or from longitude/latitude(/elevation)
// properties, and its properties are the record's property bag filtered by
// include and exclude patterns. Problems with a single record are collected
// in the Result and never stop the export; failing to write the destination
// does.
package convert

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/godeepar/tsgeojson/record"
)

var (
	// ErrNoGeometrySource means neither a WKT property nor a longitude/latitude pair was configured
	ErrNoGeometrySource = errors.New("no geometry source: set the WKT geometry property or both longitude and latitude properties")
	// ErrIncompleteCoordinates means only one of longitude and latitude was configured
	ErrIncompleteCoordinates = errors.New("longitude and latitude properties must be set together")
)

// geometryIndent prefixes the inner lines of a pretty geometry object so
// they nest under the feature's "geometry" key.
const geometryIndent = "      "

// Options configures one export
type Options struct {
	OutputFile string
	Append     bool

	IncludeProperties []string
	ExcludeProperties []string

	WKTGeometryProperty string
	LongitudeProperty   string
	LatitudeProperty    string
	ElevationProperty   string
	Output3D            bool

	JavaScriptVar string
	PrependText   string
	AppendText    string
	// Compact drops indentation and newlines inside the document
	Compact bool

	Logger  logrus.FieldLogger
	Metrics *Metrics
}

func (o Options) prettyPrint() bool { return !o.Compact }

// Mode picks the geometry source, WKT winning when both are configured
func (o Options) Mode() (GeometryMode, error) {
	if o.WKTGeometryProperty != "" {
		return ModeWKT, nil
	}
	if o.LongitudeProperty == "" && o.LatitudeProperty == "" {
		return ModePoint, ErrNoGeometrySource
	}
	if o.LongitudeProperty == "" || o.LatitudeProperty == "" {
		return ModePoint, ErrIncompleteCoordinates
	}
	return ModePoint, nil
}

// Result is the outcome of one export
type Result struct {
	RecordsProcessed int
	FeaturesWritten  int
	RecordsSkipped   int
	// Errors holds one message per record problem, in input order
	Errors []string
}

// Success reports whether every record went through without a problem
func (r *Result) Success() bool { return len(r.Errors) == 0 }

func (r *Result) addError(rec record.Record, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("time series %q: %v", rec.Identifier(), err))
}

// Exporter runs exports for one fixed configuration
type Exporter struct {
	opts     Options
	mode     GeometryMode
	resolver *Resolver
	selector *Selector
	log      logrus.FieldLogger
}

// NewExporter validates the configuration and compiles the property
// patterns. Errors returned here are configuration errors: nothing has been
// read or written yet.
func NewExporter(opts Options) (*Exporter, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	suppress := ""
	if mode == ModeWKT {
		suppress = opts.WKTGeometryProperty
	}
	selector, err := NewSelector(opts.IncludeProperties, opts.ExcludeProperties, suppress)
	if err != nil {
		return nil, err
	}

	return &Exporter{
		opts: opts,
		mode: mode,
		resolver: &Resolver{
			Mode:              mode,
			WKTProperty:       opts.WKTGeometryProperty,
			LongitudeProperty: opts.LongitudeProperty,
			LatitudeProperty:  opts.LatitudeProperty,
			ElevationProperty: opts.ElevationProperty,
			Output3D:          opts.Output3D,
			log:               log,
		},
		selector: selector,
		log:      log,
	}, nil
}

// Mode ...
func (e *Exporter) Mode() GeometryMode { return e.mode }

// ExportFile writes the document to Options.OutputFile, appending or
// truncating per Options.Append. The file is closed on every path.
func (e *Exporter) ExportFile(records []record.Record) (res *Result, err error) {
	if e.opts.OutputFile == "" {
		return nil, errors.New("no output file configured")
	}

	f, err := OpenFile(e.opts.OutputFile, e.opts.Append)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &WriteError{Path: e.opts.OutputFile, Err: cerr}
		}
	}()

	return e.export(f, e.opts.OutputFile, records)
}

// Export streams the document to w
func (e *Exporter) Export(w io.Writer, records []record.Record) (*Result, error) {
	return e.export(w, "output", records)
}

func (e *Exporter) export(w io.Writer, name string, records []record.Record) (*Result, error) {
	start := time.Now()
	res := &Result{}

	if len(records) == 0 {
		e.log.Warn("no time series to export, writing an empty FeatureCollection")
	}

	dw := NewDocumentWriter(w, name, e.opts)
	if err := dw.Begin(); err != nil {
		return res, err
	}

	for _, rec := range records {
		res.RecordsProcessed++

		feature, errs := e.buildFeature(rec)
		for _, err := range errs {
			e.log.WithField("tsid", rec.Identifier()).WithError(err).Warn("Non fatal: problem exporting time series")
			res.addError(rec, err)
		}

		if feature == nil {
			res.RecordsSkipped++
			if len(errs) > 0 {
				e.opts.Metrics.record(OutcomeFailed)
			} else {
				e.opts.Metrics.record(OutcomeSkipped)
			}
			continue
		}

		if err := dw.WriteFeature(feature); err != nil {
			return res, err
		}
		res.FeaturesWritten++
		e.opts.Metrics.record(OutcomeWritten)
	}

	if err := dw.End(); err != nil {
		return res, err
	}

	e.opts.Metrics.export(e.mode, time.Since(start).Seconds())
	e.log.WithFields(logrus.Fields{
		"records":  res.RecordsProcessed,
		"features": res.FeaturesWritten,
		"skipped":  res.RecordsSkipped,
		"errors":   len(res.Errors),
		"ms":       time.Since(start).Milliseconds(),
	}).Info("GeoJSON export finished")

	return res, nil
}

// buildFeature resolves, selects and encodes one record. A nil feature means
// the record is left out of the document.
func (e *Exporter) buildFeature(rec record.Record) ([]byte, []error) {
	geom, err := e.resolver.Resolve(rec)
	if err != nil {
		return nil, []error{err}
	}
	if geom == nil {
		return nil, nil
	}

	geometry, err := FormatGeometry(geom, e.opts.prettyPrint(), geometryIndent)
	if err != nil {
		return nil, []error{err}
	}

	sel := e.selector.Select(rec.PropertyNames())
	return encodeFeature(rec, sel, geometry, layout{pretty: e.opts.prettyPrint()})
}
