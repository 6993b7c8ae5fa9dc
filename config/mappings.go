package config

import (
	"github.com/godeepar/tsgeojson/convert"
	"github.com/godeepar/tsgeojson/source"
)

// ExportOptions maps the job onto exporter options. Logger and Metrics are
// left for the caller.
func (j *Job) ExportOptions() convert.Options {
	return convert.Options{
		OutputFile:          j.Output.File,
		Append:              j.Output.Append,
		IncludeProperties:   j.Properties.Include,
		ExcludeProperties:   j.Properties.Exclude,
		WKTGeometryProperty: j.Geometry.WKTProperty,
		LongitudeProperty:   j.Geometry.LongitudeProperty,
		LatitudeProperty:    j.Geometry.LatitudeProperty,
		ElevationProperty:   j.Geometry.ElevationProperty,
		Output3D:            j.Geometry.Output3D,
		JavaScriptVar:       j.Output.JavaScriptVar,
		PrependText:         j.Output.PrependText,
		AppendText:          j.Output.AppendText,
		Compact:             j.Output.Compact,
	}
}

// SourceOptions maps the job's input section onto a record source
func (j *Job) SourceOptions() source.Options {
	return source.Options{
		Format:        source.Format(j.Input.Format),
		Path:          j.Input.Path,
		Table:         j.Input.Table,
		Query:         j.Input.Query,
		IDProperty:    j.Input.IDProperty,
		ShapeProperty: j.Input.ShapeProperty,
	}
}
