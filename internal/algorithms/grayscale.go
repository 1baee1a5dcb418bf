package algorithms

import (
	"gocv.io/x/gocv"
)

// Grayscale collapses a BGR image to single channel luminance using the
// BT.601 weights (0.299 R + 0.587 G + 0.114 B).
type Grayscale struct{}

// NewGrayscale creates a new grayscale reducer
func NewGrayscale() *Grayscale {
	return &Grayscale{}
}

func (g *Grayscale) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 3); err != nil {
		return gocv.NewMat(), err
	}

	output := gocv.NewMat()
	if err := gocv.CvtColor(input, &output, gocv.ColorBGRToGray); err != nil {
		output.Close()
		return gocv.NewMat(), err
	}
	return output, nil
}

func (g *Grayscale) GetName() string {
	return "Grayscale"
}

func (g *Grayscale) GetDescription() string {
	return "Perceptual luma reduction of a color image"
}

func (g *Grayscale) Validate() error {
	return nil
}
