package theme

import (
	"image/color"
)

// Theme defines the colours of the editor window chrome.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window background around the canvas
	Foreground color.RGBA // Main text colour
	Accent     color.RGBA // Highlights such as the slider fill

	// Toolbar & bottom bar
	ToolbarBackground color.RGBA
	BottomBackground  color.RGBA
	LegendText        color.RGBA

	// Buttons
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonBackgroundPress color.RGBA
	ButtonText            color.RGBA
	ButtonBorder          color.RGBA

	// Zoom slider
	SliderTrack color.RGBA
	SliderKnob  color.RGBA

	// Canvas
	CheckerLight color.RGBA
	CheckerDark  color.RGBA

	// Transient messages
	MessageBackground color.RGBA
	MessageText       color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{220, 220, 220, 255},
		Foreground:            color.RGBA{0, 0, 0, 255},
		Accent:                color.RGBA{0x06, 0x5f, 0x46, 255},
		ToolbarBackground:     color.RGBA{220, 220, 220, 255},
		BottomBackground:      color.RGBA{220, 220, 220, 255},
		LegendText:            color.RGBA{40, 40, 40, 255},
		ButtonBackground:      color.RGBA{200, 200, 200, 255},
		ButtonBackgroundHover: color.RGBA{180, 180, 180, 255},
		ButtonBackgroundPress: color.RGBA{150, 150, 150, 255},
		ButtonText:            color.RGBA{0, 0, 0, 255},
		ButtonBorder:          color.RGBA{0, 0, 0, 255},
		SliderTrack:           color.RGBA{170, 170, 170, 255},
		SliderKnob:            color.RGBA{255, 255, 255, 255},
		CheckerLight:          color.RGBA{220, 220, 220, 255},
		CheckerDark:           color.RGBA{192, 192, 192, 255},
		MessageBackground:     color.RGBA{255, 255, 255, 230},
		MessageText:           color.RGBA{0, 0, 0, 255},
	}
}
