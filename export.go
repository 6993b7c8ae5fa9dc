package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/godeepar/tsgeojson/config"
	"github.com/godeepar/tsgeojson/convert"
	"github.com/godeepar/tsgeojson/source"
)

// exportFlags mirror the job file. A flag only overrides the job when it is
// given on the command line.
type exportFlags struct {
	jobFile     string
	metricsFile string
	job         config.Job
}

func newExportCmd(a *app) *cobra.Command {
	f := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write time series records to a GeoJSON file",
		Example: `  tsgeojson export -c job.yaml
  tsgeojson export -i stations.csv -o stations.geojson --lon Longitude --lat Latitude --exclude 'L*itude'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, a, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.jobFile, "config", "c", "", "YAML job file")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write export metrics to this file in the Prometheus text format")

	fl.StringVarP(&f.job.Input.Path, "input", "i", "", "records file or database")
	fl.StringVar(&f.job.Input.Format, "format", "", "records format (csv, yaml, json, geojson, shp, sqlite), guessed from the extension by default")
	fl.StringVar(&f.job.Input.Table, "table", "", "SQLite table holding the records")
	fl.StringVar(&f.job.Input.Query, "query", "", "SQLite query returning the records")
	fl.StringVar(&f.job.Input.IDProperty, "id-property", "", "property holding the time series identifier")
	fl.StringVar(&f.job.Input.ShapeProperty, "shape-property", "", "property receiving a shapefile record's geometry as WKT")

	fl.StringVarP(&f.job.Output.File, "output", "o", "", "GeoJSON output file")
	fl.BoolVar(&f.job.Output.Append, "append", false, "append to the output file instead of replacing it")
	fl.StringVar(&f.job.Output.JavaScriptVar, "js-var", "", "wrap the document as a JavaScript variable declaration")
	fl.StringVar(&f.job.Output.PrependText, "prepend-text", "", "text written before the document")
	fl.StringVar(&f.job.Output.AppendText, "append-text", "", "text written after the document")
	fl.BoolVar(&f.job.Output.Compact, "compact", false, "write the document without indentation")

	fl.StringVar(&f.job.Geometry.WKTProperty, "wkt", "", "property holding the geometry as well-known text")
	fl.StringVar(&f.job.Geometry.LongitudeProperty, "lon", "", "property holding the longitude")
	fl.StringVar(&f.job.Geometry.LatitudeProperty, "lat", "", "property holding the latitude")
	fl.StringVar(&f.job.Geometry.ElevationProperty, "elevation", "", "property holding the elevation")
	fl.BoolVar(&f.job.Geometry.Output3D, "3d", false, "write elevation as the third coordinate")

	fl.StringSliceVar(&f.job.Properties.Include, "include", nil, "property name patterns to write, * matches anything")
	fl.StringSliceVar(&f.job.Properties.Exclude, "exclude", nil, "property name patterns to leave out")

	return cmd
}

// merge copies every flag given on the command line into job
func (f *exportFlags) merge(flags *pflag.FlagSet, job *config.Job) {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}

	set("input", func() { job.Input.Path = f.job.Input.Path })
	set("format", func() { job.Input.Format = f.job.Input.Format })
	set("table", func() { job.Input.Table = f.job.Input.Table })
	set("query", func() { job.Input.Query = f.job.Input.Query })
	set("id-property", func() { job.Input.IDProperty = f.job.Input.IDProperty })
	set("shape-property", func() { job.Input.ShapeProperty = f.job.Input.ShapeProperty })

	set("output", func() { job.Output.File = f.job.Output.File })
	set("append", func() { job.Output.Append = f.job.Output.Append })
	set("js-var", func() { job.Output.JavaScriptVar = f.job.Output.JavaScriptVar })
	set("prepend-text", func() { job.Output.PrependText = f.job.Output.PrependText })
	set("append-text", func() { job.Output.AppendText = f.job.Output.AppendText })
	set("compact", func() { job.Output.Compact = f.job.Output.Compact })

	set("wkt", func() { job.Geometry.WKTProperty = f.job.Geometry.WKTProperty })
	set("lon", func() { job.Geometry.LongitudeProperty = f.job.Geometry.LongitudeProperty })
	set("lat", func() { job.Geometry.LatitudeProperty = f.job.Geometry.LatitudeProperty })
	set("elevation", func() { job.Geometry.ElevationProperty = f.job.Geometry.ElevationProperty })
	set("3d", func() { job.Geometry.Output3D = f.job.Geometry.Output3D })

	set("include", func() { job.Properties.Include = f.job.Properties.Include })
	set("exclude", func() { job.Properties.Exclude = f.job.Properties.Exclude })
}

func runExport(cmd *cobra.Command, a *app, f *exportFlags) error {
	job := &config.Job{}
	if f.jobFile != "" {
		loaded, err := config.Load(f.jobFile)
		if err != nil {
			return err
		}
		job = loaded
	}
	f.merge(cmd.Flags(), job)
	job.ApplyDefaults()

	if err := job.ResolvePaths(""); err != nil {
		return err
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid export job:\n%v", err)
	}

	records, err := source.Load(job.SourceOptions())
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opts := job.ExportOptions()
	opts.Logger = a.log
	opts.Metrics = convert.NewMetrics(reg)

	exporter, err := convert.NewExporter(opts)
	if err != nil {
		return err
	}

	res, err := exporter.ExportFile(records)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d features from %d time series to %s (%d skipped, %d problems)\n",
		res.FeaturesWritten, res.RecordsProcessed, job.Output.File, res.RecordsSkipped, len(res.Errors))

	if f.metricsFile != "" {
		if err := prometheus.WriteToTextfile(f.metricsFile, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}
