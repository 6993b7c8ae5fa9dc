package source

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/godeepar/tsgeojson/record"
)

// ReadYAML reads records from YAML or JSON. The document is either a list of
// records or a mapping with a "records" list; each record is
//
//	id: STATION1
//	properties:
//	  Longitude: -105.1
//	  Latitude: 40.2
//
// Property order in the document is kept.
func ReadYAML(contents io.Reader, idProperty string) ([]record.Record, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(contents).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	list := &doc
	if list.Kind == yaml.DocumentNode && len(list.Content) > 0 {
		list = list.Content[0]
	}
	if list.Kind == yaml.MappingNode {
		list = mappingValue(list, "records")
		if list == nil {
			return nil, errors.New(`expected a list of records or a "records" key`)
		}
	}
	if list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list of records", list.Line)
	}

	records := make([]record.Record, 0, len(list.Content))
	for i, item := range list.Content {
		ts, err := decodeRecord(item)
		if err != nil {
			return nil, err
		}
		identify(ts, idProperty, i+1)
		records = append(records, ts)
	}
	return records, nil
}

func decodeRecord(item *yaml.Node) (*record.TimeSeries, error) {
	if item.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: a record must be a mapping", item.Line)
	}

	ts := record.NewTimeSeries("")
	if id := mappingValue(item, "id"); id != nil {
		if err := id.Decode(&ts.ID); err != nil {
			return nil, fmt.Errorf("line %d: %v", id.Line, err)
		}
	}

	props := mappingValue(item, "properties")
	if props == nil {
		return ts, nil
	}
	if props.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: properties must be a mapping", props.Line)
	}

	for i := 0; i+1 < len(props.Content); i += 2 {
		key, value := props.Content[i], props.Content[i+1]
		var raw interface{}
		if err := value.Decode(&raw); err != nil {
			return nil, fmt.Errorf("line %d: %v", value.Line, err)
		}
		ts.Set(key.Value, record.FromInterface(raw))
	}
	return ts, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
