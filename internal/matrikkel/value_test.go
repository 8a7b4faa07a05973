package matrikkel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name   string
		item   any
		want   string
		wantOK bool
	}{
		{name: "nil", item: nil, want: "", wantOK: false},
		{name: "underscore type", item: map[string]any{"_type": "Person", "type": "ignored"}, want: "Person", wantOK: true},
		{name: "plain type", item: map[string]any{"type": "Matrikkelenhet"}, want: "Matrikkelenhet", wantOK: true},
		{name: "empty type falls through", item: map[string]any{"_type": "", "type": "Grunneiendom"}, want: "Grunneiendom", wantOK: true},
		{name: "numeric type", item: map[string]any{"_type": float64(7)}, want: "7", wantOK: true},
		{name: "boolean type", item: map[string]any{"type": true}, want: "true", wantOK: true},
		{name: "zero type falls through", item: map[string]any{"_type": float64(0), "type": "Person"}, want: "Person", wantOK: true},
		{name: "false type", item: map[string]any{"_type": false}, want: "unknown", wantOK: true},
		{name: "untagged", item: map[string]any{"id": 1}, want: "unknown", wantOK: true},
		{name: "scalar", item: 42, want: "unknown", wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TypeOf(tt.item)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueOf(t *testing.T) {
	typed := map[string]any{"_type": "x", "_namespace": "y", "z": 5}

	tests := []struct {
		name string
		item any
		want any
	}{
		{name: "nil", item: nil, want: nil},
		{name: "scalar", item: "abc", want: "abc"},
		{name: "value field wins", item: map[string]any{"value": 7, "other": 1, "more": 2}, want: 7},
		{name: "single field", item: map[string]any{"anything": "v"}, want: "v"},
		{name: "single nil value field", item: map[string]any{"value": nil}, want: nil},
		{name: "typed envelope", item: typed, want: 5},
		{
			name: "typed envelope with marker stays wrapped",
			item: map[string]any{"_type": "x", "_namespace": "y", "$": 5},
			want: map[string]any{"_type": "x", "_namespace": "y", "$": 5},
		},
		{
			name: "three fields without namespace",
			item: map[string]any{"_type": "x", "a": 1, "b": 2},
			want: map[string]any{"_type": "x", "a": 1, "b": 2},
		},
		{
			name: "two fields",
			item: map[string]any{"a": 1, "b": 2},
			want: map[string]any{"a": 1, "b": 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValueOf(tt.item))
		})
	}
}
