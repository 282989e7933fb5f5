package charts

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Palette holds every color a chart may use.
type Palette struct {
	Churn    color.RGBA
	Retain   color.RGBA
	Neutral  color.RGBA
	Warning  color.RGBA
	Gray     color.RGBA
	Gradient []color.RGBA
	Contract []color.RGBA
	Set3     []color.RGBA
}

// HexPalette is a Palette in "#rrggbb" form, as read from configuration.
// Empty fields keep the default.
type HexPalette struct {
	Churn    string   `mapstructure:"churn" yaml:"churn,omitempty"`
	Retain   string   `mapstructure:"retain" yaml:"retain,omitempty"`
	Neutral  string   `mapstructure:"neutral" yaml:"neutral,omitempty"`
	Warning  string   `mapstructure:"warning" yaml:"warning,omitempty"`
	Gray     string   `mapstructure:"gray" yaml:"gray,omitempty"`
	Gradient []string `mapstructure:"gradient" yaml:"gradient,omitempty"`
	Contract []string `mapstructure:"contract" yaml:"contract,omitempty"`
	Set3     []string `mapstructure:"set3" yaml:"set3,omitempty"`
}

// DefaultHex is the stock palette.
var DefaultHex = HexPalette{
	Churn:    "#e74c3c",
	Retain:   "#2ecc71",
	Neutral:  "#3498db",
	Warning:  "#f39c12",
	Gray:     "#95a5a6",
	Gradient: []string{"#f1c40f", "#e67e22", "#f39c12", "#e74c3c", "#c0392b"},
	Contract: []string{"#e74c3c", "#ff6b6b", "#ff8787"},
	Set3:     []string{"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462"},
}

// DefaultPalette returns the stock palette.
func DefaultPalette() Palette {
	p, err := NewPalette(HexPalette{})
	if err != nil {
		panic(err) // DefaultHex is static
	}
	return p
}

// NewPalette parses h over DefaultHex.
func NewPalette(h HexPalette) (Palette, error) {
	var p Palette
	singles := []struct {
		name string
		in   string
		def  string
		out  *color.RGBA
	}{
		{"churn", h.Churn, DefaultHex.Churn, &p.Churn},
		{"retain", h.Retain, DefaultHex.Retain, &p.Retain},
		{"neutral", h.Neutral, DefaultHex.Neutral, &p.Neutral},
		{"warning", h.Warning, DefaultHex.Warning, &p.Warning},
		{"gray", h.Gray, DefaultHex.Gray, &p.Gray},
	}
	for _, s := range singles {
		v := s.in
		if v == "" {
			v = s.def
		}
		c, err := ParseHex(v)
		if err != nil {
			return Palette{}, fmt.Errorf("palette.%s: %w", s.name, err)
		}
		*s.out = c
	}
	lists := []struct {
		name string
		in   []string
		def  []string
		out  *[]color.RGBA
	}{
		{"gradient", h.Gradient, DefaultHex.Gradient, &p.Gradient},
		{"contract", h.Contract, DefaultHex.Contract, &p.Contract},
		{"set3", h.Set3, DefaultHex.Set3, &p.Set3},
	}
	for _, l := range lists {
		v := l.in
		if len(v) == 0 {
			v = l.def
		}
		for i, s := range v {
			c, err := ParseHex(s)
			if err != nil {
				return Palette{}, fmt.Errorf("palette.%s[%d]: %w", l.name, i, err)
			}
			*l.out = append(*l.out, c)
		}
	}
	return p, nil
}

// ParseHex parses "#rrggbb" or "#rgb" into an opaque color.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Hex formats c as "#rrggbb".
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// cycle returns n colors from list, repeating it when shorter.
func cycle(list []color.RGBA, n int) []color.RGBA {
	out := make([]color.RGBA, n)
	if len(list) == 0 {
		return out
	}
	for i := range out {
		out[i] = list[i%len(list)]
	}
	return out
}

// intensity scales a green ramp; higher churn is darker.
func intensity(rate, maxRate float64) color.RGBA {
	f := 1.0
	if maxRate > 0 {
		f = 1 - rate/maxRate*0.5
	}
	return color.RGBA{
		R: uint8(0.18*f*255 + 0.5),
		G: uint8(0.80*f*255 + 0.5),
		B: uint8(0.44*f*255 + 0.5),
		A: 0xff,
	}
}
