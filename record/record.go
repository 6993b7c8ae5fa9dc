// Package record holds the time series records handed to the exporter and
// the typed property values they carry.
package record

// Record is one time series as seen by the exporter: an identifier plus a
// property bag. Implementations must not change while an export reads them.
type Record interface {
	Identifier() string
	// PropertyNames returns the keys in the record's natural order
	PropertyNames() []string
	// Property returns the value for name, Absent when the key is unknown
	Property(name string) Value
}

// TimeSeries is the in-memory Record used by every source loader
type TimeSeries struct {
	ID    string
	names []string
	props map[string]Value
}

// NewTimeSeries ...
func NewTimeSeries(id string) *TimeSeries {
	return &TimeSeries{ID: id, props: make(map[string]Value)}
}

// Set stores a property, keeping first-insertion order for new keys
func (ts *TimeSeries) Set(name string, v Value) *TimeSeries {
	if ts.props == nil {
		ts.props = make(map[string]Value)
	}
	if _, present := ts.props[name]; !present {
		ts.names = append(ts.names, name)
	}
	ts.props[name] = v
	return ts
}

// Identifier ...
func (ts *TimeSeries) Identifier() string { return ts.ID }

// PropertyNames ...
func (ts *TimeSeries) PropertyNames() []string {
	out := make([]string, len(ts.names))
	copy(out, ts.names)
	return out
}

// Property ...
func (ts *TimeSeries) Property(name string) Value {
	return ts.props[name]
}
