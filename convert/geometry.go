package convert

import (
	"bytes"
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/pretty"

	"github.com/godeepar/tsgeojson/record"
)

// GeometryMode says where every feature of one export gets its geometry from
type GeometryMode int

const (
	// ModePoint builds points from longitude/latitude(/elevation) properties
	ModePoint GeometryMode = iota
	// ModeWKT decodes a well-known-text property
	ModeWKT
)

// String ...
func (m GeometryMode) String() string {
	if m == ModeWKT {
		return "wkt"
	}
	return "point"
}

// Geometry is the resolved geometry of one record: either a decoded WKT shape
// or a point given as x, y and optionally z.
type Geometry struct {
	Shape  orb.Geometry
	Coords []float64
}

// Is3D reports whether the geometry is a point carrying an elevation
func (g *Geometry) Is3D() bool {
	return g.Shape == nil && len(g.Coords) == 3
}

// Resolver turns a record's properties into a Geometry
type Resolver struct {
	Mode              GeometryMode
	WKTProperty       string
	LongitudeProperty string
	LatitudeProperty  string
	ElevationProperty string
	// Output3D gates the elevation lookup; without it points are always 2D
	Output3D bool

	log logrus.FieldLogger
}

// Resolve returns the record's geometry. A nil Geometry with a nil error
// means the record has no usable geometry and is left out of the document.
func (r *Resolver) Resolve(rec record.Record) (*Geometry, error) {
	if r.Mode == ModeWKT {
		return r.resolveWKT(rec)
	}
	return r.resolvePoint(rec)
}

func (r *Resolver) resolveWKT(rec record.Record) (*Geometry, error) {
	raw := rec.Property(r.WKTProperty)
	if raw.IsAbsent() {
		r.logger().WithField("tsid", rec.Identifier()).Debugf("no %q property, skipping", r.WKTProperty)
		return nil, nil
	}

	text, ok := raw.Str()
	if !ok {
		return nil, fmt.Errorf("WKT property %q is of type %s, not string", r.WKTProperty, raw.Kind())
	}

	shape := ParseWKT(text)
	if shape == nil {
		// malformed or empty text drops the feature but is not an error
		r.logger().WithField("tsid", rec.Identifier()).Debugf("could not parse WKT %q, skipping", text)
		return nil, nil
	}

	return &Geometry{Shape: shape}, nil
}

func (r *Resolver) resolvePoint(rec record.Record) (*Geometry, error) {
	lonValue := rec.Property(r.LongitudeProperty)
	latValue := rec.Property(r.LatitudeProperty)
	if lonValue.IsAbsent() || latValue.IsAbsent() {
		r.logger().WithField("tsid", rec.Identifier()).Debug("missing longitude or latitude, skipping")
		return nil, nil
	}

	// each coordinate is coerced from its own value
	x, err := coordinate(r.LongitudeProperty, lonValue)
	if err != nil {
		return nil, err
	}
	y, err := coordinate(r.LatitudeProperty, latValue)
	if err != nil {
		return nil, err
	}

	if r.Output3D && r.ElevationProperty != "" {
		zValue := rec.Property(r.ElevationProperty)
		if !zValue.IsAbsent() {
			z, err := coordinate(r.ElevationProperty, zValue)
			if err != nil {
				return nil, err
			}
			return &Geometry{Coords: []float64{x, y, z}}, nil
		}
	}

	return &Geometry{Coords: []float64{x, y}}, nil
}

func (r *Resolver) logger() logrus.FieldLogger {
	if r.log == nil {
		return logrus.StandardLogger()
	}
	return r.log
}

func coordinate(name string, v record.Value) (float64, error) {
	f, ok := record.AsFloat(v)
	if !ok {
		return 0, fmt.Errorf("property %q is of type %s, cannot read it as a number", name, v.Kind())
	}
	return f, nil
}

// ParseWKT decodes well-known text, returning nil for malformed or empty input
func ParseWKT(text string) (shape orb.Geometry) {
	defer func() {
		if r := recover(); r != nil {
			shape = nil
		}
	}()

	shape, err := wkt.Unmarshal(text)
	if err != nil || shape == nil {
		return nil
	}
	if isEmpty(shape) {
		return nil
	}
	return shape
}

func isEmpty(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.MultiPoint:
		return len(v) == 0
	case orb.LineString:
		return len(v) == 0
	case orb.MultiLineString:
		return len(v) == 0
	case orb.Polygon:
		return len(v) == 0
	case orb.MultiPolygon:
		return len(v) == 0
	case orb.Collection:
		return len(v) == 0
	}
	return false
}

// FormatGeometry renders the GeoJSON "geometry" object. With prettyPrint the
// object is indented and every line after the first is prefixed with indent,
// so it can be written directly after a `"geometry": ` key.
func FormatGeometry(g *Geometry, prettyPrint bool, indent string) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("no geometry to format")
	}

	var raw []byte
	var err error
	if g.Shape != nil {
		raw, err = orbjson.NewGeometry(g.Shape).MarshalJSON()
	} else {
		raw, err = geojson.NewPointGeometry(g.Coords).MarshalJSON()
	}
	if err != nil {
		return nil, fmt.Errorf("[FormatGeometry] in pkg [convert] encountered: %v", err)
	}

	if !prettyPrint {
		return raw, nil
	}

	out := pretty.PrettyOptions(raw, &pretty.Options{
		Width:  80,
		Prefix: indent,
		Indent: "  ",
	})
	out = bytes.TrimPrefix(out, []byte(indent))
	return bytes.TrimRight(out, "\n"), nil
}
