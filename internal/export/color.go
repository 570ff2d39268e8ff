package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Shashank-Shivakumar/Docfly/internal/form"
)

// RGB is a color with components in [0, 1]
type RGB struct {
	R, G, B float64
}

// Black is the default text color
var Black = RGB{}

// ParseColor converts a #RRGGBB string into an RGB triple
func ParseColor(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{
		R: float64((v>>16)&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64(v&0xff) / 255,
	}, nil
}

// Hex formats the color as #rrggbb
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int {
	n := int(v*255 + 0.5)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}

// parseBackground returns nil for transparent or unset backgrounds
func parseBackground(s string) (*RGB, error) {
	if s == "" || strings.EqualFold(s, form.Transparent) {
		return nil, nil
	}
	c, err := ParseColor(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
