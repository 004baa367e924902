// Package output renders a report to a writer.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Nao-Mk2/access-log-top/internal/config"
)

// Renderer writes one document to w.
type Renderer interface {
	Render(w io.Writer, v any) error
}

// New returns the renderer for format.
func New(format string) (Renderer, error) {
	switch format {
	case config.FormatJSON, "":
		return JSONRenderer{Indent: "    "}, nil
	case config.FormatYAML:
		return YAMLRenderer{Indent: 4}, nil
	case config.FormatText:
		return &TextRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// JSONRenderer writes pretty-printed JSON followed by a newline. Keys and
// values are not HTML-escaped.
type JSONRenderer struct {
	Indent string
}

func (r JSONRenderer) Render(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", r.Indent)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// YAMLRenderer writes a YAML document.
type YAMLRenderer struct {
	Indent int
}

func (r YAMLRenderer) Render(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if r.Indent > 0 {
		enc.SetIndent(r.Indent)
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
