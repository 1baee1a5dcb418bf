// Morphological cleanup of the ink mask
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Opening implements morphological opening (erosion followed by dilation)
// with a square structuring element. Foreground blobs smaller than the
// kernel disappear; strokes at least as wide survive unchanged.
type Opening struct {
	KernelSize int
}

// NewOpening creates a new opening algorithm
func NewOpening(kernelSize int) *Opening {
	return &Opening{KernelSize: kernelSize}
}

func (o *Opening) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1); err != nil {
		return gocv.NewMat(), err
	}
	if err := o.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	// A 1x1 opening is the identity
	if o.KernelSize == 1 {
		return input.Clone(), nil
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(o.KernelSize, o.KernelSize))
	defer kernel.Close()

	output := gocv.NewMat()
	if err := gocv.MorphologyEx(input, &output, gocv.MorphOpen, kernel); err != nil {
		output.Close()
		return gocv.NewMat(), err
	}
	return output, nil
}

func (o *Opening) GetName() string {
	return "Opening"
}

func (o *Opening) GetDescription() string {
	return "Morphological opening to remove speckle while preserving strokes"
}

func (o *Opening) Validate() error {
	if o.KernelSize < 1 || o.KernelSize > 15 {
		return fmt.Errorf("opening: kernel_size must be between 1 and 15")
	}
	return nil
}

func (o *Opening) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "kernel_size",
			Value:       float64(o.KernelSize),
			Min:         1,
			Max:         15,
			Description: "Size of the morphological kernel",
		},
	}
}
