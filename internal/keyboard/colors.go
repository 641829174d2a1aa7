package keyboard

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Text colours picked by TextColor
const (
	DarkText  = "#111827"
	LightText = "#ffffff"
)

// lightTextThreshold is the HSL lightness (percent) above which text turns dark
const lightTextThreshold = 65

// Swatch is a badge colour for one application
type Swatch struct {
	HSL       string `json:"hsl"`
	Hex       string `json:"hex"`
	Lightness int    `json:"lightness"`
	Text      string `json:"text"`
}

// AppColor derives a stable colour from the application name: hue from a
// 31-based string hash, saturation 65-84% and lightness 55-74%
func AppColor(app string) Swatch {
	var hash uint32
	for _, r := range app {
		hash = hash*31 + uint32(r)
	}

	hue := int(hash % 360)
	saturation := 65 + int(hash%20)
	lightness := 55 + int(hash%20)

	c := colorful.Hsl(float64(hue), float64(saturation)/100, float64(lightness)/100)
	return Swatch{
		HSL:       fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue, saturation, lightness),
		Hex:       c.Clamped().Hex(),
		Lightness: lightness,
		Text:      TextColor(lightness),
	}
}

// TextColor returns dark text on light backgrounds and white otherwise
func TextColor(lightness int) string {
	if lightness > lightTextThreshold {
		return DarkText
	}
	return LightText
}

// Blend renders several badge colours as one CSS background: a single
// colour as-is, two as a hard diagonal split, more as a gradient
func Blend(colors []string) string {
	switch len(colors) {
	case 0:
		return "transparent"
	case 1:
		return colors[0]
	case 2:
		return fmt.Sprintf("linear-gradient(135deg, %[1]s 0%%, %[1]s 49%%, %[2]s 51%%, %[2]s 100%%)", colors[0], colors[1])
	default:
		return "linear-gradient(135deg, " + strings.Join(colors, ", ") + ")"
	}
}

// Mix averages swatches in Lab space. It is used to pick a readable text
// colour over a blended background.
func Mix(swatches []Swatch) (Swatch, bool) {
	if len(swatches) == 0 {
		return Swatch{}, false
	}

	mixed, err := colorful.Hex(swatches[0].Hex)
	if err != nil {
		return Swatch{}, false
	}
	for i, s := range swatches[1:] {
		c, err := colorful.Hex(s.Hex)
		if err != nil {
			return Swatch{}, false
		}
		// running mean: the (i+2)-th colour weighs 1/(i+2)
		mixed = mixed.BlendLab(c, 1/float64(i+2)).Clamped()
	}

	h, s, l := mixed.Hsl()
	lightness := int(l*100 + 0.5)
	return Swatch{
		HSL:       fmt.Sprintf("hsl(%d, %d%%, %d%%)", int(h+0.5)%360, int(s*100+0.5), lightness),
		Hex:       mixed.Hex(),
		Lightness: lightness,
		Text:      TextColor(lightness),
	}, true
}
