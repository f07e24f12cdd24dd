package filters

import "github.com/scanprep/pix"

// GrayscaleMode determines the algorithm for RGB to grayscale conversion.
type GrayscaleMode int

const (
	// GrayscaleAverage uses the rounded simple average: (R + G + B) / 3
	GrayscaleAverage GrayscaleMode = iota
	// GrayscaleLuminance uses standard luminance weights: 0.299*R + 0.587*G + 0.114*B
	GrayscaleLuminance
	// GrayscaleLightness uses min/max average: (max(R,G,B) + min(R,G,B)) / 2
	GrayscaleLightness
)

func (m GrayscaleMode) String() string {
	switch m {
	case GrayscaleLuminance:
		return "Luminance"
	case GrayscaleAverage:
		return "Average"
	case GrayscaleLightness:
		return "Lightness"
	default:
		return "Unknown"
	}
}

// NewGrayscale creates a grayscale filter setting R=G=B to the gray value
// computed by mode. Alpha is kept.
func NewGrayscale(mode GrayscaleMode) *PointFilter {
	filterMode := mode
	return &PointFilter{
		In:  pix.ShapeRGBA8888,
		Out: pix.ShapeRGBA8888,
		Fn: func(dst, src []byte) {
			for i := 0; i < len(src); i += 4 {
				r, g, b := src[i], src[i+1], src[i+2]
				var gray uint8
				switch filterMode {
				case GrayscaleLuminance:
					gray = clampRound(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
				case GrayscaleLightness:
					gray = uint8((uint32(min(r, g, b)) + uint32(max(r, g, b)) + 1) / 2)
				default: // GrayscaleAverage
					gray = uint8((uint32(r) + uint32(g) + uint32(b) + 1) / 3)
				}
				dst[i], dst[i+1], dst[i+2], dst[i+3] = gray, gray, gray, src[i+3]
			}
		},
		Ctrls: []pix.Control{
			&pix.ControlEnum[GrayscaleMode]{
				Name:        "Conversion Mode",
				Description: "Algorithm for RGB to grayscale conversion",
				Value:       filterMode,
				ValidValues: []GrayscaleMode{GrayscaleAverage, GrayscaleLuminance, GrayscaleLightness},
				OnChange: func(m GrayscaleMode) error {
					filterMode = m // Closure will assign and Fn above pick up.
					return nil
				},
			},
		},
	}
}

// ApplyGrayscale returns a new buffer with every pixel set to the average of its channels.
func ApplyGrayscale(src *pix.Buffer) (*pix.Buffer, error) {
	return Apply(NewGrayscale(GrayscaleAverage), src)
}
