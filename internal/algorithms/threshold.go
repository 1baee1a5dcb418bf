package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// InkValue is the mask level marking an ink pixel. Background is 0.
const InkValue = 255

// AdaptiveThreshold classifies pixels darker than their Gaussian-weighted
// neighborhood mean minus Offset as ink. Dark-on-light is the only supported
// polarity. OpenCV replicates edge pixels when the window leaves the image.
type AdaptiveThreshold struct {
	BlockSize int
	Offset    float64
}

// NewAdaptiveThreshold creates a new adaptive binarizer
func NewAdaptiveThreshold(blockSize int, offset float64) *AdaptiveThreshold {
	return &AdaptiveThreshold{BlockSize: blockSize, Offset: offset}
}

func (a *AdaptiveThreshold) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1); err != nil {
		return gocv.NewMat(), err
	}
	if err := a.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	output := gocv.NewMat()
	err := gocv.AdaptiveThreshold(input, &output, InkValue,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv,
		a.BlockSize, float32(a.Offset))
	if err != nil {
		output.Close()
		return gocv.NewMat(), err
	}
	return output, nil
}

func (a *AdaptiveThreshold) GetName() string {
	return "Adaptive Threshold"
}

func (a *AdaptiveThreshold) GetDescription() string {
	return "Gaussian local thresholding tolerant of shadows and uneven lighting"
}

func (a *AdaptiveThreshold) Validate() error {
	if err := checkOdd("block_size", a.BlockSize, 3, 101); err != nil {
		return fmt.Errorf("adaptive threshold: %w", err)
	}
	if a.Offset < -255 || a.Offset > 255 {
		return fmt.Errorf("adaptive threshold: offset must be between -255 and 255")
	}
	return nil
}

func (a *AdaptiveThreshold) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "block_size",
			Value:       float64(a.BlockSize),
			Min:         3,
			Max:         101,
			Description: "Size of neighborhood area",
		},
		{
			Name:        "offset",
			Value:       a.Offset,
			Min:         -255,
			Max:         255,
			Description: "Constant subtracted from the local mean",
		},
	}
}
