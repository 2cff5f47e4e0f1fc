package render

import (
	"fmt"

	"github.com/headline-goat/ratechart/internal/selection"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var seriesColors = map[selection.Theme][]drawing.Color{
	selection.ThemeLight: {
		drawing.ColorFromHex("46464F"),
		drawing.ColorFromHex("4142EF"),
		drawing.ColorFromHex("FF8346"),
		drawing.ColorFromHex("35BDAD"),
	},
	selection.ThemeDark: {
		drawing.ColorFromHex("C7C5D0"),
		drawing.ColorFromHex("A1A3FF"),
		drawing.ColorFromHex("FF8346"),
		drawing.ColorFromHex("35BDAD"),
	},
}

type surface struct {
	background drawing.Color
	text       drawing.Color
	grid       drawing.Color
}

var surfaces = map[selection.Theme]surface{
	selection.ThemeLight: {
		background: drawing.ColorFromHex("FFFFFF"),
		text:       drawing.ColorFromHex("6B6B76"),
		grid:       drawing.ColorFromHex("E1DFE7"),
	},
	selection.ThemeDark: {
		background: drawing.ColorFromHex("1E1E24"),
		text:       drawing.ColorFromHex("C7C5D0"),
		grid:       drawing.ColorFromHex("3A3A44"),
	},
}

// areaAlpha is the 20% fill opacity of the area style.
const areaAlpha = 51

// SeriesColor returns the color of the variation at position index in the
// dataset. Colors repeat past the palette length.
func SeriesColor(theme selection.Theme, index int) drawing.Color {
	palette, ok := seriesColors[theme]
	if !ok {
		palette = seriesColors[selection.ThemeLight]
	}
	if index < 0 {
		index = 0
	}
	return palette[index%len(palette)]
}

func surfaceFor(theme selection.Theme) surface {
	if s, ok := surfaces[theme]; ok {
		return s
	}
	return surfaces[selection.ThemeLight]
}

// HexColor formats c as #RRGGBB.
func HexColor(c drawing.Color) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
