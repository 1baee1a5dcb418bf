// Filter algorithms for noise reduction
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GaussianFilter implements the denoising stage. Sigma is derived from the
// kernel size, so only the kernel is tunable. Borders are reflected
// (OpenCV BORDER_REFLECT_101).
type GaussianFilter struct {
	KernelSize int
}

// NewGaussianFilter creates a new Gaussian filter algorithm
func NewGaussianFilter(kernelSize int) *GaussianFilter {
	return &GaussianFilter{KernelSize: kernelSize}
}

func (g *GaussianFilter) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1); err != nil {
		return gocv.NewMat(), err
	}
	if err := g.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	output := gocv.NewMat()
	err := gocv.GaussianBlur(input, &output, image.Pt(g.KernelSize, g.KernelSize), 0, 0, gocv.BorderReflect101)
	if err != nil {
		output.Close()
		return gocv.NewMat(), err
	}
	return output, nil
}

func (g *GaussianFilter) GetName() string {
	return "Gaussian Filter"
}

func (g *GaussianFilter) GetDescription() string {
	return "Small Gaussian blur that suppresses paper texture without eroding strokes"
}

func (g *GaussianFilter) Validate() error {
	if err := checkOdd("kernel_size", g.KernelSize, 1, 21); err != nil {
		return fmt.Errorf("gaussian filter: %w", err)
	}
	return nil
}

func (g *GaussianFilter) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "kernel_size",
			Value:       float64(g.KernelSize),
			Min:         1,
			Max:         21,
			Description: "Size of the Gaussian kernel (must be odd)",
		},
	}
}
