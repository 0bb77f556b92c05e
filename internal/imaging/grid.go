package imaging

import (
	"fmt"
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses a "#RRGGBB" hex color into an opaque RGBA value.
func ParseColor(hex string) (color.RGBA, error) {
	if hex == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawGrid draws grid lines every spacing pixels onto img, in place, so that
// coordinates can be read off a debug render. With showCoordinates set, each
// grid intersection is labelled with its "x,y" position.
func DrawGrid(img *image.RGBA, spacing int, showCoordinates bool, c color.RGBA) error {
	if spacing < 1 {
		return fmt.Errorf("grid spacing must be positive, got %d", spacing)
	}
	b := img.Bounds()

	for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	if showCoordinates {
		fg := color.RGBA{255, 255, 255, 255}
		bg := color.RGBA{0, 0, 0, 255}
		for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
			for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
				DrawLabel(img, x+2, y+2, fmt.Sprintf("%d,%d", x-b.Min.X, y-b.Min.Y), fg, bg)
			}
		}
	}
	return nil
}

// glyphs is a 3x5 pixel font covering the characters labels use.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
	'#': {"101", "111", "101", "111", "101"},
}

// DrawLabel draws text at (x, y) on a filled background box. Characters
// without a glyph are left blank. Pixels outside img are skipped.
func DrawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	const charWidth, labelHeight = 4, 7
	b := img.Bounds()
	set := func(px, py int, c color.RGBA) {
		if image.Pt(px, py).In(b) {
			img.SetRGBA(px, py, c)
		}
	}

	labelWidth := len(text) * charWidth
	for dy := -1; dy < labelHeight-1; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' {
						set(cx+col, y+row, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
