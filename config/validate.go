package config

import (
	"errors"
	"fmt"

	"github.com/godeepar/tsgeojson/convert"
)

var (
	// ErrOutputDirMissing means the output file's folder does not exist
	ErrOutputDirMissing = errors.New("output folder does not exist")
	// ErrNoOutputFile ...
	ErrNoOutputFile = errors.New("no output file")
	// ErrNoInput ...
	ErrNoInput = errors.New("no input path")
)

// FieldError ties a configuration error to the job field that caused it
type FieldError struct {
	Field string
	Value string
	Err   error
}

// Error ...
func (e *FieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Field, e.Err, e.Value)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap ...
func (e *FieldError) Unwrap() error { return e.Err }

// Validate checks a file-to-file job. Every problem is reported, joined.
func (j *Job) Validate() error {
	var errs []error

	if j.Input.Path == "" {
		errs = append(errs, &FieldError{Field: "input.path", Err: ErrNoInput})
	}

	if j.Output.File == "" {
		errs = append(errs, &FieldError{Field: "output.file", Err: ErrNoOutputFile})
	} else if err := checkOutputDir(j.Output.File); err != nil {
		errs = append(errs, err)
	}

	if err := j.ValidateExport(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateExport checks only what the exporter itself needs: a geometry
// source and well-formed property patterns.
func (j *Job) ValidateExport() error {
	var errs []error

	if _, err := j.ExportOptions().Mode(); err != nil {
		errs = append(errs, &FieldError{Field: "geometry", Err: err})
	}
	if _, err := convert.CompilePatterns(j.Properties.Include); err != nil {
		errs = append(errs, &FieldError{Field: "properties.include", Err: err})
	}
	if _, err := convert.CompilePatterns(j.Properties.Exclude); err != nil {
		errs = append(errs, &FieldError{Field: "properties.exclude", Err: err})
	}

	return errors.Join(errs...)
}
