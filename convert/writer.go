package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/godeepar/tsgeojson/record"
)

// WriteError is a failure to open, write or close the destination. It aborts
// the whole export.
type WriteError struct {
	Path string
	Err  error
}

// Error ...
func (e *WriteError) Error() string {
	return fmt.Sprintf("error writing GeoJSON to %q: %v", e.Path, e.Err)
}

// Unwrap ...
func (e *WriteError) Unwrap() error { return e.Err }

// OpenFile opens the destination for writing, appending to existing bytes
// when appendMode is set and truncating otherwise.
func OpenFile(path string, appendMode bool) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	return f, nil
}

// layout carries the whitespace used between tokens
type layout struct {
	pretty bool
}

func (l layout) nl() string {
	if l.pretty {
		return "\n"
	}
	return ""
}

func (l layout) indent(level int) string {
	if l.pretty {
		return strings.Repeat("  ", level)
	}
	return ""
}

func (l layout) colon() string {
	if l.pretty {
		return ": "
	}
	return ":"
}

// DocumentWriter streams a FeatureCollection: the envelope is written by
// Begin and End and every feature is written as soon as it is handed over.
type DocumentWriter struct {
	w    io.Writer
	name string

	javascriptVar string
	prependText   string
	appendText    string
	layout        layout

	features int
}

// NewDocumentWriter wraps w. name identifies the destination in errors.
func NewDocumentWriter(w io.Writer, name string, opts Options) *DocumentWriter {
	return &DocumentWriter{
		w:             w,
		name:          name,
		javascriptVar: opts.JavaScriptVar,
		prependText:   opts.PrependText,
		appendText:    opts.AppendText,
		layout:        layout{pretty: opts.prettyPrint()},
	}
}

// Features returns how many features have been written so far
func (d *DocumentWriter) Features() int { return d.features }

// Begin writes the prepend text, the opening token and the collection header
func (d *DocumentWriter) Begin() error {
	l := d.layout
	var b strings.Builder

	b.WriteString(d.prependText)
	if d.javascriptVar != "" {
		b.WriteString("var " + d.javascriptVar + " = {")
	} else {
		b.WriteString("{")
	}
	b.WriteString(l.nl())
	b.WriteString(l.indent(1) + `"type"` + l.colon() + `"FeatureCollection",` + l.nl())
	b.WriteString(l.indent(1) + `"features"` + l.colon() + "[")

	return d.write(b.String())
}

// WriteFeature writes one encoded feature block. A separator goes in front
// of every feature but the first, so records that were skipped never leave a
// dangling comma. This differs from placing the separator after every record
// but the last one processed, which breaks the JSON when trailing records
// are skipped.
func (d *DocumentWriter) WriteFeature(feature []byte) error {
	var b bytes.Buffer
	if d.features > 0 {
		b.WriteString(",")
	}
	b.WriteString(d.layout.nl())
	b.Write(feature)

	if err := d.write(b.String()); err != nil {
		return err
	}
	d.features++
	return nil
}

// End closes the features array and the collection and writes the append text
func (d *DocumentWriter) End() error {
	l := d.layout
	var b strings.Builder

	b.WriteString(l.nl())
	b.WriteString(l.indent(1) + "]" + l.nl())
	if d.javascriptVar != "" {
		b.WriteString("};")
	} else {
		b.WriteString("}")
	}
	b.WriteString(d.appendText)
	b.WriteString("\n")

	return d.write(b.String())
}

func (d *DocumentWriter) write(s string) error {
	if _, err := io.WriteString(d.w, s); err != nil {
		return &WriteError{Path: d.name, Err: err}
	}
	return nil
}

// EncodeValue renders a property value as a JSON literal
func EncodeValue(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encodeFeature builds one Feature block at the features array's nesting
// level. Properties the encoder rejects are left out and returned as errors;
// the feature itself is still produced.
func encodeFeature(rec record.Record, sel Selection, geometry []byte, l layout) ([]byte, []error) {
	var errs []error
	var entries []string

	for _, key := range sel {
		k, err := EncodeValue(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("cannot encode property name %q: %v", key, err))
			continue
		}
		v, err := EncodeValue(rec.Property(key).Interface())
		if err != nil {
			errs = append(errs, fmt.Errorf("cannot encode property %q: %v", key, err))
			continue
		}
		entries = append(entries, l.indent(4)+string(k)+l.colon()+string(v))
	}

	var b bytes.Buffer
	b.WriteString(l.indent(2) + "{" + l.nl())
	b.WriteString(l.indent(3) + `"type"` + l.colon() + `"Feature",` + l.nl())
	b.WriteString(l.indent(3) + `"properties"` + l.colon() + "{")
	if len(entries) > 0 {
		b.WriteString(l.nl())
		b.WriteString(strings.Join(entries, ","+l.nl()))
		b.WriteString(l.nl() + l.indent(3))
	}
	b.WriteString("}," + l.nl())
	b.WriteString(l.indent(3) + `"geometry"` + l.colon())
	b.Write(geometry)
	b.WriteString(l.nl() + l.indent(2) + "}")

	return b.Bytes(), errs
}
