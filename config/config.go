// Package config describes one GeoJSON export job: where the records come
// from, how geometry is found, which properties are written and where the
// document goes. Jobs are stored as YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Job ...
type Job struct {
	Input      Input      `yaml:"input" json:"input"`
	Output     Output     `yaml:"output" json:"output"`
	Geometry   Geometry   `yaml:"geometry" json:"geometry"`
	Properties Properties `yaml:"properties" json:"properties"`
}

// Input ...
type Input struct {
	Format        string `yaml:"format" json:"format"`
	Path          string `yaml:"path" json:"path"`
	Table         string `yaml:"table" json:"table"`
	Query         string `yaml:"query" json:"query"`
	IDProperty    string `yaml:"idProperty" json:"idProperty"`
	ShapeProperty string `yaml:"shapeProperty" json:"shapeProperty"`
}

// Output ...
type Output struct {
	File          string `yaml:"file" json:"file"`
	Append        bool   `yaml:"append" json:"append"`
	JavaScriptVar string `yaml:"javascriptVar" json:"javascriptVar"`
	PrependText   string `yaml:"prependText" json:"prependText"`
	AppendText    string `yaml:"appendText" json:"appendText"`
	Compact       bool   `yaml:"compact" json:"compact"`
}

// Geometry ...
type Geometry struct {
	WKTProperty       string `yaml:"wktProperty" json:"wktProperty"`
	LongitudeProperty string `yaml:"longitudeProperty" json:"longitudeProperty"`
	LatitudeProperty  string `yaml:"latitudeProperty" json:"latitudeProperty"`
	ElevationProperty string `yaml:"elevationProperty" json:"elevationProperty"`
	Output3D          bool   `yaml:"output3D" json:"output3D"`
}

// Properties ...
type Properties struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// Load reads a job file. Defaults are applied, validation is left to the caller
// because command line flags may still fill in missing values.
func Load(path string) (*Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML job document
func Parse(raw []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("parsing job file: %w", err)
	}
	job.ApplyDefaults()
	return &job, nil
}

// ApplyDefaults fills in the values a job may leave out
func (j *Job) ApplyDefaults() {
	if len(j.Properties.Include) == 0 {
		j.Properties.Include = []string{"*"}
	}
}
