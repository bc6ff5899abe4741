package ssr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeProps(t *testing.T) {
	both := JSONOptions{IgnoreNulls: true, EscapeHTML: true}

	tests := []struct {
		name  string
		props any
		opts  JSONOptions
		want  string
	}{
		{"nil props", nil, both, `{}`},
		{"struct", struct {
			Name string `json:"name"`
		}{"Ada"}, both, `{"name":"Ada"}`},
		{"drops null members", map[string]any{"a": nil, "b": 1}, both, `{"b":1}`},
		{"drops nested nulls", map[string]any{"o": map[string]any{"x": nil, "y": "z"}}, both, `{"o":{"y":"z"}}`},
		{"keeps null array items", map[string]any{"l": []any{1, nil, 2}}, both, `{"l":[1,null,2]}`},
		{"keeps nulls when disabled", map[string]any{"a": nil}, JSONOptions{EscapeHTML: true}, `{"a":null}`},
		{"escapes html", map[string]string{"s": "</script>&"}, both, `{"s":"\u003c/script\u003e\u0026"}`},
		{"raw html when disabled", map[string]string{"s": "<b>"}, JSONOptions{}, `{"s":"<b>"}`},
		{"large numbers survive", map[string]any{"n": int64(9007199254740993)}, both, `{"n":9007199254740993}`},
		{"nil pointer", (*struct{})(nil), both, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SerializeProps(tt.props, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerializeProps_Unserializable(t *testing.T) {
	for name, props := range map[string]any{
		"func":    map[string]any{"f": func() {}},
		"channel": make(chan int),
		"nan":     math.NaN(),
	} {
		_, err := SerializeProps(props, DefaultConfig().JSON)
		assert.Error(t, err, name)
	}
}
