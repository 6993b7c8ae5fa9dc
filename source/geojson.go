package source

import (
	"errors"
	"fmt"
	"io"
	"sort"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb/encoding/wkt"
	orbjson "github.com/paulmach/orb/geojson"

	"github.com/godeepar/tsgeojson/record"
)

// DefaultShapeProperty receives a GeoJSON feature's geometry when no other
// property is named
const DefaultShapeProperty = "WKT"

// ReadGeoJSON reads one record per feature of a FeatureCollection. Feature
// properties are stored in key order, the geometry goes to shapeProperty as
// WKT and the feature id is used when idProperty does not name one.
func ReadGeoJSON(contents io.Reader, idProperty string, shapeProperty string) ([]record.Record, error) {
	raw, err := io.ReadAll(contents)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("no data in dataset")
	}

	collection, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, err
	}

	if shapeProperty == "" {
		shapeProperty = DefaultShapeProperty
	}

	records := make([]record.Record, 0, len(collection.Features))
	for i, feature := range collection.Features {
		ts := record.NewTimeSeries("")

		keys := make([]string, 0, len(feature.Properties))
		for k := range feature.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ts.Set(k, record.FromInterface(feature.Properties[k]))
		}

		if feature.Geometry != nil {
			text, err := geometryWKT(feature.Geometry)
			if err != nil {
				return nil, fmt.Errorf("feature %d: %v", i+1, err)
			}
			ts.Set(shapeProperty, record.StringValue(text))
		}

		if idProperty == "" && feature.ID != nil {
			ts.ID = fmt.Sprintf("%v", feature.ID)
		}
		identify(ts, idProperty, i+1)
		records = append(records, ts)
	}

	return records, nil
}

// geometryWKT re-reads a feature geometry with orb to write it as WKT
func geometryWKT(g *geojson.Geometry) (string, error) {
	raw, err := g.MarshalJSON()
	if err != nil {
		return "", err
	}
	parsed, err := orbjson.UnmarshalGeometry(raw)
	if err != nil {
		return "", err
	}
	return wkt.MarshalString(parsed.Geometry()), nil
}
