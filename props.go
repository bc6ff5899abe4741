package ssr

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SerializeProps encodes props the way they are handed to the script
// environment and embedded in client bootstrap code. A nil props value
// encodes as an empty object.
func SerializeProps(props any, opts JSONOptions) (string, error) {
	if props == nil {
		return "{}", nil
	}

	v := props
	if opts.IgnoreNulls {
		raw, err := json.Marshal(props)
		if err != nil {
			return "", err
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var tree any
		if err := dec.Decode(&tree); err != nil {
			return "", err
		}
		v = dropNulls(tree)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(opts.EscapeHTML)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	if out == "null" {
		return "{}", nil
	}
	return out, nil
}

// dropNulls removes null-valued object members recursively. Null array
// elements are kept so indexes stay stable.
func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if val == nil {
				delete(t, k)
				continue
			}
			t[k] = dropNulls(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = dropNulls(val)
		}
		return t
	default:
		return v
	}
}
