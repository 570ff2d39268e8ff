package placement

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// lineHeightFactor approximates the browser's "normal" line height
const lineHeightFactor = 1.2

// Measurer reports the advance width of a line of text
type Measurer interface {
	TextWidth(text string, size float64, bold, italic bool) (float64, error)
}

// FontMeasurer measures text with the Go font family. Faces are built lazily
// and cached per style and size.
type FontMeasurer struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[string]font.Face
}

// NewFontMeasurer creates a measurer backed by the Go fonts
func NewFontMeasurer() *FontMeasurer {
	return &FontMeasurer{
		fonts: make(map[string]*opentype.Font),
		faces: make(map[string]font.Face),
	}
}

// TextWidth returns the advance width of text in points
func (m *FontMeasurer) TextWidth(text string, size float64, bold, italic bool) (float64, error) {
	face, err := m.face(size, bold, italic)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	adv := font.MeasureString(face, text)
	return float64(adv) / 64, nil
}

func (m *FontMeasurer) face(size float64, bold, italic bool) (font.Face, error) {
	style := styleName(bold, italic)
	key := fmt.Sprintf("%s/%.2f", style, size)

	m.mu.Lock()
	defer m.mu.Unlock()
	if face, ok := m.faces[key]; ok {
		return face, nil
	}

	f, ok := m.fonts[style]
	if !ok {
		parsed, err := opentype.Parse(fontData(bold, italic))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s font: %w", style, err)
		}
		f = parsed
		m.fonts[style] = f
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s face: %w", style, err)
	}
	m.faces[key] = face
	return face, nil
}

func styleName(bold, italic bool) string {
	switch {
	case bold && italic:
		return "bolditalic"
	case bold:
		return "bold"
	case italic:
		return "italic"
	}
	return "regular"
}

func fontData(bold, italic bool) []byte {
	switch {
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	}
	return goregular.TTF
}

// Box padding of a rendered input, mirrored from the editor's field styling
const (
	paddingX       = 8.0
	paddingY       = 4.0
	comfortPadding = 16.0
	minGrowWidth   = 120.0
	minTextHeight  = 32.0
	minParaHeight  = 60.0
)

// ContentSize returns the box a text or paragraph field needs to show value
// without clipping. Paragraph values wrap only at newlines.
func ContentSize(m Measurer, value string, size, border float64, bold, italic, multiline bool) (width, height float64, err error) {
	lines := []string{value}
	if multiline {
		lines = strings.Split(value, "\n")
	}

	var widest float64
	for _, line := range lines {
		w, err := m.TextWidth(line, size, bold, italic)
		if err != nil {
			return 0, 0, err
		}
		if w > widest {
			widest = w
		}
	}

	frame := 2*border + comfortPadding
	width = widest + 2*paddingX + frame
	height = float64(len(lines))*size*lineHeightFactor + 2*paddingY + frame

	minHeight := minTextHeight
	if multiline {
		minHeight = minParaHeight
	}
	if width < minGrowWidth {
		width = minGrowWidth
	}
	if height < minHeight {
		height = minHeight
	}
	return width, height, nil
}
