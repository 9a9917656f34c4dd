package lighting

import "fmt"

// Color is one RGB pixel value.
type Color struct {
	R, G, B uint8
}

// Scale returns the color with every channel multiplied by factor and
// truncated. Factor is expected in [0,1].
func (c Color) Scale(factor float64) Color {
	return Color{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
	}
}

// String returns a debug representation like RGB(0,50,255).
func (c Color) String() string {
	return fmt.Sprintf("RGB(%d,%d,%d)", c.R, c.G, c.B)
}

// Fixed palette used by the mode animations.
var (
	ColorOff          = Color{0, 0, 0}
	ColorSearching    = Color{0, 50, 255}
	ColorProvisioning = Color{255, 165, 0}
	ColorConnected    = Color{0, 255, 0}
	ColorUpdating     = Color{255, 255, 0}
	ColorError        = Color{255, 0, 0}
)
