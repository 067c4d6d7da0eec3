package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Safe fallbacks used when a color value cannot be normalized at all.
const (
	FallbackText       = "#000000"
	FallbackBackground = "#ffffff"
)

// namedColors covers the CSS named colors that show up in practice in
// resume documents. Anything not listed falls through to the fallback.
var namedColors = map[string]string{
	"black":   "#000000",
	"silver":  "#c0c0c0",
	"gray":    "#808080",
	"grey":    "#808080",
	"white":   "#ffffff",
	"maroon":  "#800000",
	"red":     "#ff0000",
	"purple":  "#800080",
	"fuchsia": "#ff00ff",
	"green":   "#008000",
	"lime":    "#00ff00",
	"olive":   "#808000",
	"yellow":  "#ffff00",
	"navy":    "#000080",
	"blue":    "#0000ff",
	"teal":    "#008080",
	"aqua":    "#00ffff",
	"orange":  "#ffa500",
	"gold":    "#ffd700",
	"pink":    "#ffc0cb",
	"brown":   "#a52a2a",
	"beige":   "#f5f5dc",
	"ivory":   "#fffff0",
	"coral":   "#ff7f50",
	"salmon":  "#fa8072",
	"crimson": "#dc143c",
	"indigo":  "#4b0082",
	"violet":  "#ee82ee",
	"tan":     "#d2b48c",
	"khaki":   "#f0e68c",
}

// NormalizeColor resolves a CSS color value into a form that downstream
// rasterizers understand: hex and rgb()/rgba() values pass through
// untouched, while named colors, hsl(), and the perceptual color spaces
// (lab, lch, oklab, oklch) are converted to an rgb() equivalent. The
// function is idempotent and never fails: values it cannot interpret
// resolve to the given fallback. "transparent" is preserved as-is.
func NormalizeColor(value, fallback string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback
	}

	lower := strings.ToLower(v)
	if lower == "transparent" || lower == "rgba(0, 0, 0, 0)" {
		return v
	}
	if strings.HasPrefix(v, "#") || strings.HasPrefix(lower, "rgb") {
		return v
	}
	if hex, ok := namedColors[lower]; ok {
		return toRGBString(mustHex(hex))
	}

	fn, args, ok := splitColorFunc(lower)
	if !ok {
		return fallback
	}

	var c colorful.Color
	switch fn {
	case "hsl", "hsla":
		if len(args) < 3 {
			return fallback
		}
		c = colorful.Hsl(args[0], args[1], args[2])
	case "lab":
		if len(args) < 3 {
			return fallback
		}
		c = colorful.Lab(lightness(args[0]), args[1]/100, args[2]/100)
	case "lch":
		if len(args) < 3 {
			return fallback
		}
		c = colorful.Hcl(args[2], args[1]/100, lightness(args[0]))
	case "oklab":
		if len(args) < 3 {
			return fallback
		}
		c = okLabToColor(lightness(args[0]), args[1], args[2])
	case "oklch":
		if len(args) < 3 {
			return fallback
		}
		h := args[2] * math.Pi / 180
		c = okLabToColor(lightness(args[0]), args[1]*math.Cos(h), args[1]*math.Sin(h))
	default:
		return fallback
	}

	return toRGBString(c.Clamped())
}

// ParseRGB resolves any supported color value down to 8-bit RGB channels
// for the PDF writer. Transparent and unparseable values report ok=false.
func ParseRGB(value string) (r, g, b int, ok bool) {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" || v == "transparent" || v == "rgba(0, 0, 0, 0)" {
		return 0, 0, 0, false
	}

	if strings.HasPrefix(v, "#") {
		c, err := colorful.Hex(expandShortHex(v))
		if err != nil {
			return 0, 0, 0, false
		}
		cr, cg, cb := c.RGB255()
		return int(cr), int(cg), int(cb), true
	}

	if strings.HasPrefix(v, "rgb") {
		_, args, found := splitColorFunc(v)
		if !found || len(args) < 3 {
			return 0, 0, 0, false
		}
		return int(args[0]), int(args[1]), int(args[2]), true
	}

	// Anything else goes through normalization first.
	normalized := NormalizeColor(v, "")
	if normalized == "" || normalized == v {
		return 0, 0, 0, false
	}
	return ParseRGB(normalized)
}

// splitColorFunc breaks "fn(a b c / d)" or "fn(a, b, c)" into the function
// name and numeric arguments. Percent values are scaled to 0..1, except the
// hue argument which is passed through in degrees.
func splitColorFunc(v string) (string, []float64, bool) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return "", nil, false
	}
	fn := strings.TrimSpace(v[:open])
	body := v[open+1 : len(v)-1]
	body = strings.NewReplacer(",", " ", "/", " ").Replace(body)

	var args []float64
	for i, field := range strings.Fields(body) {
		percent := strings.HasSuffix(field, "%")
		field = strings.TrimSuffix(field, "%")
		field = strings.TrimSuffix(field, "deg")
		n, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return "", nil, false
		}
		if percent && !isHueArg(fn, i) {
			n /= 100
		}
		args = append(args, n)
	}
	return fn, args, true
}

func isHueArg(fn string, i int) bool {
	switch fn {
	case "hsl", "hsla":
		return i == 0
	case "lch", "oklch":
		return i == 2
	}
	return false
}

// okLabToColor converts OKLab coordinates to sRGB. go-colorful predates the
// OKLab space, so the cube-root LMS transform lives here; the final
// linear-to-sRGB step reuses the library's gamma handling.
func okLabToColor(l, a, b float64) colorful.Color {
	lp := l + 0.3963377774*a + 0.2158037573*b
	mp := l - 0.1055613458*a - 0.0638541728*b
	sp := l - 0.0894841775*a - 1.2914855480*b

	lc := lp * lp * lp
	mc := mp * mp * mp
	sc := sp * sp * sp

	return colorful.LinearRgb(
		+4.0767416621*lc-3.3077115913*mc+0.2309699292*sc,
		-1.2684380046*lc+2.6097574011*mc-0.3413193965*sc,
		-0.0041960863*lc-0.7034186147*mc+1.7076147010*sc,
	)
}

// lightness scales an unqualified CSS lightness value (0..100) to the 0..1
// range; percent values were already scaled during parsing.
func lightness(l float64) float64 {
	if l > 1 {
		return l / 100
	}
	return l
}

func toRGBString(c colorful.Color) string {
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}

func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}
	}
	return c
}

func expandShortHex(hex string) string {
	if len(hex) != 4 {
		return hex
	}
	return fmt.Sprintf("#%c%c%c%c%c%c", hex[1], hex[1], hex[2], hex[2], hex[3], hex[3])
}
