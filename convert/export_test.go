package convert

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/godeepar/tsgeojson/record"
)

func station(id string, lon, lat record.Value) *record.TimeSeries {
	return record.NewTimeSeries(id).
		Set("id", record.StringValue(id)).
		Set("Longitude", lon).
		Set("Latitude", lat)
}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func pointOptions() Options {
	return Options{
		LongitudeProperty: "Longitude",
		LatitudeProperty:  "Latitude",
		Logger:            quietLogger(),
	}
}

func runExport(t *testing.T, opts Options, records ...record.Record) (string, *Result) {
	t.Helper()
	e, err := NewExporter(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	res, err := e.Export(&buf, records)
	require.NoError(t, err)
	return buf.String(), res
}

func TestExportSinglePoint(t *testing.T) {
	out, res := runExport(t, pointOptions(),
		station("A", record.FloatValue(-105.0), record.FloatValue(40.0)))

	require.True(t, gjson.Valid(out))
	assert.Equal(t, "FeatureCollection", gjson.Get(out, "type").String())
	assert.Equal(t, int64(1), gjson.Get(out, "features.#").Int())
	assert.Equal(t, "Feature", gjson.Get(out, "features.0.type").String())
	assert.Equal(t, "A", gjson.Get(out, "features.0.properties.id").String())
	assert.Equal(t, "Point", gjson.Get(out, "features.0.geometry.type").String())
	assert.Equal(t, -105.0, gjson.Get(out, "features.0.geometry.coordinates.0").Float())
	assert.Equal(t, 40.0, gjson.Get(out, "features.0.geometry.coordinates.1").Float())
	assert.Equal(t, int64(2), gjson.Get(out, "features.0.geometry.coordinates.#").Int())

	assert.True(t, res.Success())
	assert.Equal(t, 1, res.FeaturesWritten)
	assert.Equal(t, 1, res.RecordsProcessed)
}

func TestExportCompactLayout(t *testing.T) {
	opts := pointOptions()
	opts.Compact = true
	opts.ExcludeProperties = []string{"L*itude"}

	out, _ := runExport(t, opts, station("A", record.FloatValue(-105.0), record.FloatValue(40.0)))

	want := `{"type":"FeatureCollection","features":[` +
		`{"type":"Feature","properties":{"id":"A"},"geometry":{"type":"Point","coordinates":[-105,40]}}` +
		"]}\n"
	assert.Equal(t, want, out)
}

func TestExportEmpty(t *testing.T) {
	out, res := runExport(t, pointOptions())

	assert.Equal(t, "{\n  \"type\": \"FeatureCollection\",\n  \"features\": [\n  ]\n}\n", out)
	assert.True(t, res.Success())
	assert.Equal(t, 0, res.FeaturesWritten)

	fc, err := geojson.UnmarshalFeatureCollection([]byte(out))
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestExportRoundTrip(t *testing.T) {
	records := []record.Record{
		station("A", record.FloatValue(-105.0), record.FloatValue(40.0)),
		station("B", record.IntValue(-104), record.Float32Value(39.5)),
		station("C", record.Value{}, record.FloatValue(39.0)),
		station("D", record.FloatValue(-103.5), record.FloatValue(38.25)),
	}

	out, res := runExport(t, pointOptions(), records...)

	fc, err := geojson.UnmarshalFeatureCollection([]byte(out))
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	// input order is kept and the skipped record leaves no gap
	ids := []string{}
	for _, f := range fc.Features {
		ids = append(ids, f.Properties["id"].(string))
	}
	assert.Equal(t, []string{"A", "B", "D"}, ids)
	assert.Equal(t, []float64{-104, 39.5}, fc.Features[1].Geometry.Point)

	assert.Equal(t, 4, res.RecordsProcessed)
	assert.Equal(t, 3, res.FeaturesWritten)
	assert.Equal(t, 1, res.RecordsSkipped)
	assert.True(t, res.Success())
}

func TestExportTrailingSkippedRecordsStayValid(t *testing.T) {
	for _, compact := range []bool{false, true} {
		opts := pointOptions()
		opts.Compact = compact

		out, res := runExport(t, opts,
			station("A", record.FloatValue(1), record.FloatValue(2)),
			station("B", record.FloatValue(3), record.FloatValue(4)),
			station("C", record.FloatValue(5), record.Value{}),
			station("D", record.Value{}, record.Value{}))

		require.True(t, gjson.Valid(out), out)
		assert.Equal(t, int64(2), gjson.Get(out, "features.#").Int())
		assert.Equal(t, 2, res.RecordsSkipped)
	}
}

func TestExportLeadingSkippedRecordStaysValid(t *testing.T) {
	out, _ := runExport(t, pointOptions(),
		station("A", record.Value{}, record.FloatValue(2)),
		station("B", record.FloatValue(3), record.FloatValue(4)))

	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, "B", gjson.Get(out, "features.0.properties.id").String())
}

func TestExportCollectsRecordErrors(t *testing.T) {
	out, res := runExport(t, pointOptions(),
		station("bad", record.StringValue("west"), record.FloatValue(40)),
		station("good", record.FloatValue(-105), record.FloatValue(40)))

	require.True(t, gjson.Valid(out))
	assert.Equal(t, int64(1), gjson.Get(out, "features.#").Int())

	assert.False(t, res.Success())
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], `time series "bad"`)
	assert.Contains(t, res.Errors[0], "Longitude")
}

func TestExportSkipsUnencodableProperty(t *testing.T) {
	rec := station("A", record.FloatValue(-105), record.FloatValue(40)).
		Set("ratio", record.FloatValue(math.NaN())).
		Set("name", record.StringValue("Gauge <1> & co"))

	out, res := runExport(t, pointOptions(), rec)

	require.True(t, gjson.Valid(out))
	props := gjson.Get(out, "features.0.properties")
	assert.False(t, props.Get("ratio").Exists())
	assert.Equal(t, "Gauge <1> & co", props.Get("name").String())
	assert.Contains(t, out, "Gauge <1> & co")

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "ratio")
	assert.Equal(t, 1, res.FeaturesWritten)
}

func TestExportPropertyTypes(t *testing.T) {
	rec := station("A", record.FloatValue(-105), record.FloatValue(40)).
		Set("count", record.IntValue(12)).
		Set("active", record.BoolValue(true)).
		Set("missing", record.Value{}).
		Set("quote", record.StringValue(`say "hi"`))

	out, _ := runExport(t, pointOptions(), rec)

	props := gjson.Get(out, "features.0.properties")
	assert.Equal(t, int64(12), props.Get("count").Int())
	assert.Equal(t, gjson.True, props.Get("active").Type)
	assert.Equal(t, gjson.Null, props.Get("missing").Type)
	assert.Equal(t, `say "hi"`, props.Get("quote").String())
	assert.Equal(t, []string{"id", "Longitude", "Latitude", "count", "active", "missing", "quote"}, keys(props))
}

func keys(obj gjson.Result) []string {
	var out []string
	obj.ForEach(func(k, _ gjson.Result) bool {
		out = append(out, k.String())
		return true
	})
	return out
}

func TestExportWKTMode(t *testing.T) {
	opts := Options{
		WKTGeometryProperty: "WKT",
		LongitudeProperty:   "Longitude",
		LatitudeProperty:    "Latitude",
		IncludeProperties:   []string{"*"},
		Logger:              quietLogger(),
	}

	records := []record.Record{
		record.NewTimeSeries("poly").
			Set("name", record.StringValue("basin")).
			Set("WKT", record.StringValue("POLYGON((0 0,1 0,1 1,0 0))")),
		record.NewTimeSeries("broken").
			Set("name", record.StringValue("broken")).
			Set("WKT", record.StringValue("POLYGON((0 0,")),
		record.NewTimeSeries("none").
			Set("name", record.StringValue("none")),
	}

	e, err := NewExporter(opts)
	require.NoError(t, err)
	assert.Equal(t, ModeWKT, e.Mode())

	var buf bytes.Buffer
	res, err := e.Export(&buf, records)
	require.NoError(t, err)
	out := buf.String()

	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, int64(1), gjson.Get(out, "features.#").Int())
	assert.Equal(t, "Polygon", gjson.Get(out, "features.0.geometry.type").String())
	assert.False(t, gjson.Get(out, "features.0.properties.WKT").Exists())
	assert.Equal(t, "basin", gjson.Get(out, "features.0.properties.name").String())

	// malformed and missing WKT are omissions, not errors
	assert.True(t, res.Success())
	assert.Equal(t, 2, res.RecordsSkipped)
}

func TestExport3D(t *testing.T) {
	opts := pointOptions()
	opts.ElevationProperty = "Elevation"
	opts.Output3D = true

	out, _ := runExport(t, opts,
		station("A", record.FloatValue(-105), record.FloatValue(40)).Set("Elevation", record.FloatValue(1609.3)))

	assert.Equal(t, int64(3), gjson.Get(out, "features.0.geometry.coordinates.#").Int())
	assert.Equal(t, 1609.3, gjson.Get(out, "features.0.geometry.coordinates.2").Float())
}

func TestExportJavaScriptWrapper(t *testing.T) {
	opts := pointOptions()
	opts.JavaScriptVar = "stations"
	opts.PrependText = "// generated\n"
	opts.AppendText = "\nconsole.log(stations);"

	out, _ := runExport(t, opts, station("A", record.FloatValue(-105), record.FloatValue(40)))

	require.True(t, strings.HasPrefix(out, "// generated\nvar stations = {\n"))
	require.True(t, strings.HasSuffix(out, "};\nconsole.log(stations);\n"))

	body := strings.TrimPrefix(out, "// generated\nvar stations = ")
	body = strings.TrimSuffix(body, ";\nconsole.log(stations);\n")
	fc, err := geojson.UnmarshalFeatureCollection([]byte(body))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)
}

func TestExportPlainAppendText(t *testing.T) {
	opts := pointOptions()
	opts.Compact = true
	opts.AppendText = " "

	out, _ := runExport(t, opts)
	assert.Equal(t, `{"type":"FeatureCollection","features":[]} `+"\n", out)
}

func TestNewExporterConfigurationErrors(t *testing.T) {
	_, err := NewExporter(Options{})
	assert.ErrorIs(t, err, ErrNoGeometrySource)

	_, err = NewExporter(Options{LongitudeProperty: "x"})
	assert.ErrorIs(t, err, ErrIncompleteCoordinates)

	e, err := NewExporter(Options{WKTGeometryProperty: "WKT", LongitudeProperty: "x"})
	require.NoError(t, err)
	assert.Equal(t, ModeWKT, e.Mode())
}

type failingWriter struct {
	after int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, io.ErrClosedPipe
	}
	w.after--
	return len(p), nil
}

func TestExportWriteFailureIsFatal(t *testing.T) {
	e, err := NewExporter(pointOptions())
	require.NoError(t, err)

	_, err = e.Export(&failingWriter{after: 1}, []record.Record{
		station("A", record.FloatValue(1), record.FloatValue(2)),
	})
	require.Error(t, err)

	var werr *WriteError
	require.True(t, errors.As(err, &werr))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestExportFileAppendAndTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.json")
	require.NoError(t, os.WriteFile(path, []byte("EXISTING\n"), 0644))

	opts := pointOptions()
	opts.OutputFile = path
	opts.Append = true

	e, err := NewExporter(opts)
	require.NoError(t, err)
	_, err = e.ExportFile([]record.Record{station("A", record.FloatValue(1), record.FloatValue(2))})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "EXISTING\n{"))

	opts.Append = false
	e, err = NewExporter(opts)
	require.NoError(t, err)
	_, err = e.ExportFile(nil)
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(data))
	assert.Equal(t, int64(0), gjson.GetBytes(data, "features.#").Int())
}

func TestExportFileOpenFailure(t *testing.T) {
	opts := pointOptions()
	opts.OutputFile = filepath.Join(t.TempDir(), "missing", "out.json")

	e, err := NewExporter(opts)
	require.NoError(t, err)

	_, err = e.ExportFile(nil)
	var werr *WriteError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, opts.OutputFile, werr.Path)
	assert.Contains(t, err.Error(), opts.OutputFile)
}

func TestExportMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := pointOptions()
	opts.Metrics = NewMetrics(reg)

	runExport(t, opts,
		station("A", record.FloatValue(1), record.FloatValue(2)),
		station("B", record.Value{}, record.FloatValue(2)),
		station("C", record.BoolValue(true), record.FloatValue(2)))

	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.Records.WithLabelValues(OutcomeWritten)))
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.Records.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.Records.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.Exports.WithLabelValues("point")))
}
