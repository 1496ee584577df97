package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"passthrough", "rainbow road", "rainbow road"},
		{"trim and lower", "  Rainbow Road  ", "rainbow road"},
		{"collapse whitespace", "rainbow    road", "rainbow road"},
		{"curly apostrophe", "Yoshi’s Island", "yoshi's island"},
		{"alias plain", "bowser castle", "bowser's castle"},
		{"alias missing apostrophe", "Bowsers Castle", "bowser's castle"},
		{"alias abbreviation", "BC", "bowser's castle"},
		{"alias numbered", "bowser castle 3", "bowser's castle"},
		{"alias numbered possessive", "Bowser's Castle 4", "bowser's castle"},
		{"alias curly numbered", "Bowser’s Castle 2", "bowser's castle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.raw))
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for _, raw := range []string{"BC", "  Rainbow   Road ", "Bowser’s Castle 2", "toad's turnpike"} {
		once := Canonicalize(raw)
		assert.Equal(t, once, Canonicalize(once), "canonicalize(%q) not idempotent", raw)
	}
}

func TestSlugFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"rainbow road", "rainbow-road"},
		{"bowser's castle", "bowser-s-castle"},
		{"dk jungle", "dk-jungle"},
		{"wario stadium 64", "wario-stadium-64"},
		{"  odd -- input  ", "odd-input"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SlugFor(tt.name), "SlugFor(%q)", tt.name)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"rainbow road", "Rainbow Road"},
		{"bowser's castle", "Bowser's Castle"},
		{"yoshi's island", "Yoshi's Island"},
		{"wario stadium 64", "Wario Stadium 64"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayName(tt.name), "DisplayName(%q)", tt.name)
	}
}
