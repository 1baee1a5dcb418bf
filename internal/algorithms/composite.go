package algorithms

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Compositor turns an ink mask into a BGRA image: mask pixels become Ink at
// full opacity, every other pixel is (0,0,0,0).
type Compositor struct {
	Ink color.RGBA
}

// NewCompositor creates a compositor painting with the given ink color.
// The alpha component of ink is ignored.
func NewCompositor(ink color.RGBA) *Compositor {
	return &Compositor{Ink: ink}
}

func (c *Compositor) Apply(mask gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(mask, 1); err != nil {
		return gocv.NewMat(), err
	}

	rows, cols := mask.Rows(), mask.Cols()
	output := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC4)

	ink := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(c.Ink.B), float64(c.Ink.G), float64(c.Ink.R), 255),
		rows, cols, gocv.MatTypeCV8UC4)
	defer ink.Close()

	if err := ink.CopyToWithMask(&output, mask); err != nil {
		output.Close()
		return gocv.NewMat(), err
	}
	return output, nil
}

func (c *Compositor) GetName() string {
	return "Compositor"
}

func (c *Compositor) GetDescription() string {
	return "Paints ink pixels with a solid color over a transparent background"
}

func (c *Compositor) Validate() error {
	return nil
}
