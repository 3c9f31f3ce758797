package enrich

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BodyConverter turns request parameters into a request body and response
// bodies into result values.
type BodyConverter interface {
	Encode(params map[string]string) (body []byte, contentType string, err error)
	Decode(body []byte, v any) error
}

// JSONConverter is the default BodyConverter. Unknown response fields are
// ignored and fields holding "" decode as if they were absent.
type JSONConverter struct{}

var _ BodyConverter = JSONConverter{}

// Encode marshals params as a JSON object.
func (JSONConverter) Encode(params map[string]string) ([]byte, string, error) {
	if params == nil {
		params = map[string]string{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil, "", fmt.Errorf("enrich: encode params: %w", err)
	}
	return b, "application/json", nil
}

// Decode unmarshals body into v. An empty body leaves v untouched.
func (JSONConverter) Decode(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	// Raw targets get the body untouched.
	if raw, ok := v.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], body...)
		return nil
	}

	var tree any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return fmt.Errorf("enrich: decode response: %w", err)
	}
	cleaned, err := json.Marshal(dropEmptyStrings(tree))
	if err != nil {
		return fmt.Errorf("enrich: decode response: %w", err)
	}
	if err := json.Unmarshal(cleaned, v); err != nil {
		return fmt.Errorf("enrich: decode response: %w", err)
	}
	return nil
}

// dropEmptyStrings removes object members whose value is "" and turns ""
// array elements into null.
func dropEmptyStrings(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if s, ok := child.(string); ok && s == "" {
				delete(t, k)
				continue
			}
			t[k] = dropEmptyStrings(child)
		}
		return t
	case []any:
		for i, child := range t {
			if s, ok := child.(string); ok && s == "" {
				t[i] = nil
				continue
			}
			t[i] = dropEmptyStrings(child)
		}
		return t
	case string:
		if t == "" {
			return nil
		}
	}
	return v
}
