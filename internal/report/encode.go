package report

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// StatsKey is the report key of the run summary. It always comes first.
const StatsKey = "_stats"

// MarshalJSON emits the stats and sections as one object whose keys keep
// report order. Keys and values are not HTML-escaped.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	add := func(key string, v any) error {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		k, err := marshalJSON(key)
		if err != nil {
			return err
		}
		b, err := marshalJSON(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(b)
		return nil
	}
	if r.Stats != nil {
		if err := add(StatsKey, r.Stats); err != nil {
			return nil, err
		}
	}
	for _, s := range r.Sections {
		if err := add(s.Category.ReportKey(), s); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalYAML builds an ordered mapping with the same keys as MarshalJSON.
func (r *Report) MarshalYAML() (interface{}, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	add := func(key string, v any) error {
		val := &yaml.Node{}
		if err := val.Encode(v); err != nil {
			return err
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			val,
		)
		return nil
	}
	if r.Stats != nil {
		if err := add(StatsKey, r.Stats); err != nil {
			return nil, err
		}
	}
	for _, s := range r.Sections {
		if err := add(s.Category.ReportKey(), s); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
