package render

import (
	"strings"
	"testing"
)

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "hex passes through", value: "#3b82f6", want: "#3b82f6"},
		{name: "short hex passes through", value: "#fff", want: "#fff"},
		{name: "rgb passes through", value: "rgb(59, 130, 246)", want: "rgb(59, 130, 246)"},
		{name: "rgba passes through", value: "rgba(59, 130, 246, 0.5)", want: "rgba(59, 130, 246, 0.5)"},
		{name: "transparent preserved", value: "transparent", want: "transparent"},
		{name: "named color", value: "red", want: "rgb(255, 0, 0)"},
		{name: "named color mixed case", value: "Navy", want: "rgb(0, 0, 128)"},
		{name: "whitespace trimmed", value: "  #000000  ", want: "#000000"},
		{name: "hsl red", value: "hsl(0, 100%, 50%)", want: "rgb(255, 0, 0)"},
		{name: "hsl blue", value: "hsl(240, 100%, 50%)", want: "rgb(0, 0, 255)"},
		{name: "empty falls back", value: "", want: FallbackText},
		{name: "garbage falls back", value: "not-a-color", want: FallbackText},
		{name: "unclosed function falls back", value: "hsl(0, 100%", want: FallbackText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeColor(tt.value, FallbackText)
			if got != tt.want {
				t.Errorf("NormalizeColor(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestNormalizeColorIdempotent(t *testing.T) {
	inputs := []string{"#3b82f6", "red", "hsl(120, 50%, 50%)", "oklch(0.7 0.1 240)", "transparent"}
	for _, value := range inputs {
		once := NormalizeColor(value, FallbackText)
		twice := NormalizeColor(once, FallbackText)
		if once != twice {
			t.Errorf("NormalizeColor not idempotent for %q: %q then %q", value, once, twice)
		}
	}
}

func TestNormalizeColorPerceptualSpaces(t *testing.T) {
	// Perceptual color spaces must resolve to an rgb() value, never the
	// fallback
	inputs := []string{
		"lab(50% 40 59.5)",
		"lch(52.2% 72.2 50)",
		"oklab(0.59 0.1 0.1)",
		"oklch(0.7 0.15 30)",
	}
	for _, value := range inputs {
		got := NormalizeColor(value, FallbackText)
		if !strings.HasPrefix(got, "rgb(") {
			t.Errorf("NormalizeColor(%q) = %q, want an rgb() value", value, got)
		}
	}
}

func TestParseRGB(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		r, g, b int
		ok      bool
	}{
		{name: "hex", value: "#ff8000", r: 255, g: 128, b: 0, ok: true},
		{name: "short hex", value: "#f00", r: 255, g: 0, b: 0, ok: true},
		{name: "rgb", value: "rgb(10, 20, 30)", r: 10, g: 20, b: 30, ok: true},
		{name: "named via normalization", value: "white", r: 255, g: 255, b: 255, ok: true},
		{name: "transparent", value: "transparent", ok: false},
		{name: "empty", value: "", ok: false},
		{name: "garbage", value: "chartreuse-ish", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, ok := ParseRGB(tt.value)
			if ok != tt.ok {
				t.Fatalf("ParseRGB(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && (r != tt.r || g != tt.g || b != tt.b) {
				t.Errorf("ParseRGB(%q) = (%d, %d, %d), want (%d, %d, %d)",
					tt.value, r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}
}
