package source

import (
	"path/filepath"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/godeepar/tsgeojson/record"
)

// LoadShapefile reads one record per shape from the shapefile's attribute
// table, typing values by dBASE field type. When shapeProperty is set the
// shape itself is stored there as WKT.
func LoadShapefile(path string, idProperty string, shapeProperty string) ([]record.Record, error) {
	// the reader wants the .shp and finds the .dbf next to it
	if strings.EqualFold(filepath.Ext(path), ".dbf") {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".shp"
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	fields := reader.Fields()
	var records []record.Record

	for reader.Next() {
		n, shape := reader.Shape()

		ts := record.NewTimeSeries("")
		for k, f := range fields {
			ts.Set(f.String(), attributeValue(f, reader.ReadAttribute(n, k)))
		}

		if shapeProperty != "" {
			if g := shapeGeometry(shape); g != nil {
				ts.Set(shapeProperty, record.StringValue(wkt.MarshalString(g)))
			} else {
				ts.Set(shapeProperty, record.Value{})
			}
		}

		identify(ts, idProperty, n+1)
		records = append(records, ts)
	}

	// Next stops on a damaged record as well as at the end of the file
	if err := reader.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func attributeValue(f shp.Field, raw string) record.Value {
	s := strings.Trim(raw, " \x00")
	if s == "" {
		return record.Value{}
	}

	switch f.Fieldtype {
	case 'N':
		if f.Precision == 0 {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return record.IntValue(i)
			}
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return record.FloatValue(v)
		}
	case 'F':
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return record.FloatValue(v)
		}
	case 'L':
		switch s {
		case "T", "t", "Y", "y":
			return record.BoolValue(true)
		case "F", "f", "N", "n":
			return record.BoolValue(false)
		}
		// '?' is an uninitialized logical
		return record.Value{}
	}
	return record.StringValue(s)
}

// shapeGeometry converts the shapes a property export can use, nil otherwise
func shapeGeometry(s shp.Shape) orb.Geometry {
	switch v := s.(type) {
	case *shp.Point:
		return orb.Point{v.X, v.Y}
	case *shp.PointZ:
		return orb.Point{v.X, v.Y}
	case *shp.MultiPoint:
		mp := make(orb.MultiPoint, 0, len(v.Points))
		for _, p := range v.Points {
			mp = append(mp, orb.Point{p.X, p.Y})
		}
		return mp
	case *shp.PolyLine:
		parts := splitParts(v.Parts, v.Points)
		if len(parts) == 1 {
			return orb.LineString(parts[0])
		}
		mls := make(orb.MultiLineString, 0, len(parts))
		for _, p := range parts {
			mls = append(mls, orb.LineString(p))
		}
		return mls
	case *shp.Polygon:
		parts := splitParts(v.Parts, v.Points)
		poly := make(orb.Polygon, 0, len(parts))
		for _, p := range parts {
			poly = append(poly, orb.Ring(p))
		}
		return poly
	}
	return nil
}

func splitParts(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}
