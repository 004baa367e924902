package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// ValidateQuery reports whether expr is a valid JMESPath expression.
func ValidateQuery(expr string) error {
	if _, err := jmespath.Compile(expr); err != nil {
		return fmt.Errorf("compile query %q: %w", expr, err)
	}
	return nil
}

// Query evaluates the JMESPath expression expr against the JSON form of v
// and returns the result as plain JSON values. Objects in the result lose
// the key order of v.
func Query(v any, expr string) (any, error) {
	jp, err := jmespath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile query %q: %w", expr, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode query input: %w", err)
	}
	var input any
	if err := json.Unmarshal(buf.Bytes(), &input); err != nil {
		return nil, fmt.Errorf("decode query input: %w", err)
	}

	out, err := jp.Search(input)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", expr, err)
	}
	return out, nil
}
