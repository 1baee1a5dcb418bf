package core

import (
	"fmt"
)

// Params holds every tunable of the digitizing chain. The blur kernel,
// threshold block and morphology kernel interact: a blur wider than the
// block flattens the local contrast the threshold relies on, and a
// morphology kernel wider than the thinnest stroke erases it.
type Params struct {
	// BlurKernel is the Gaussian kernel side; odd.
	BlurKernel int `yaml:"blur_kernel"`
	// BlockSize is the adaptive threshold neighborhood side; odd, >= 3.
	BlockSize int `yaml:"block_size"`
	// Offset is subtracted from the local mean before comparing.
	Offset float64 `yaml:"offset"`
	// MorphKernel is the opening structuring element side.
	MorphKernel int `yaml:"morph_kernel"`
	// MaxDimension bounds width and height of accepted inputs; 0 disables.
	MaxDimension int `yaml:"max_dimension"`
	// DefaultColor is the ink used when a caller names none.
	DefaultColor ColorProfile `yaml:"default_color"`
}

// DefaultParams returns the stock settings
func DefaultParams() Params {
	return Params{
		BlurKernel:   5,
		BlockSize:    11,
		Offset:       2,
		MorphKernel:  2,
		MaxDimension: 16384,
		DefaultColor: DefaultProfile,
	}
}

// Validate checks ranges and parity
func (p Params) Validate() error {
	if p.BlurKernel < 1 || p.BlurKernel > 21 || p.BlurKernel%2 == 0 {
		return fmt.Errorf("blur_kernel must be odd and between 1 and 21, got %d", p.BlurKernel)
	}
	if p.BlockSize < 3 || p.BlockSize > 101 || p.BlockSize%2 == 0 {
		return fmt.Errorf("block_size must be odd and between 3 and 101, got %d", p.BlockSize)
	}
	if p.Offset < -255 || p.Offset > 255 {
		return fmt.Errorf("offset must be between -255 and 255, got %g", p.Offset)
	}
	if p.MorphKernel < 1 || p.MorphKernel > 15 {
		return fmt.Errorf("morph_kernel must be between 1 and 15, got %d", p.MorphKernel)
	}
	if p.MaxDimension < 0 {
		return fmt.Errorf("max_dimension must not be negative, got %d", p.MaxDimension)
	}
	if !p.DefaultColor.Valid() {
		return fmt.Errorf("default_color: unknown profile %s", p.DefaultColor)
	}
	return nil
}
