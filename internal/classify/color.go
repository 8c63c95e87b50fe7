package classify

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var (
	hexColorRE = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	rgbColorRE = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*(?:,\s*[\d.]+\s*)?\)$`)
	hslColorRE = regexp.MustCompile(`^hsla?\(\s*(\d{1,3})\s*,\s*(\d{1,3})%?\s*,\s*(\d{1,3})%?\s*(?:,\s*[\d.]+\s*)?\)$`)
)

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// IsColor reports whether s is a hex, rgb(a) or hsl(a) color literal.
func IsColor(s string) bool {
	return hexColorRE.MatchString(s) || rgbColorRE.MatchString(s) || hslColorRE.MatchString(s)
}

// ParseColor converts a color literal to RGB. Alpha is ignored.
func ParseColor(s string) (RGB, bool) {
	if m := hexColorRE.FindStringSubmatch(s); m != nil {
		h := m[1]
		if len(h) == 3 {
			h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
		}
		v, err := strconv.ParseUint(h[:6], 16, 32)
		if err != nil {
			return RGB{}, false
		}
		return RGB{uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
	}
	if m := rgbColorRE.FindStringSubmatch(s); m != nil {
		var c [3]uint8
		for i := range c {
			n, _ := strconv.Atoi(m[i+1])
			if n > 255 {
				return RGB{}, false
			}
			c[i] = uint8(n)
		}
		return RGB{c[0], c[1], c[2]}, true
	}
	if m := hslColorRE.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		sat, _ := strconv.Atoi(m[2])
		l, _ := strconv.Atoi(m[3])
		if h > 360 || sat > 100 || l > 100 {
			return RGB{}, false
		}
		return hslToRGB(float64(h), float64(sat)/100, float64(l)/100), true
	}
	return RGB{}, false
}

func hslToRGB(h, s, l float64) RGB {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGB{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
	}
}
