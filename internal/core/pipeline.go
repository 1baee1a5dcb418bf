// Signature digitizing pipeline
package core

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"signature-digitizer/internal/algorithms"
)

// Digitizer turns a photographed signature into a transparent ink image.
// It holds no per-request state and is safe for concurrent use.
type Digitizer struct {
	params Params
	logger logrus.FieldLogger
}

// NewDigitizer validates params and builds a digitizer. A nil logger
// discards output.
func NewDigitizer(params Params, logger logrus.FieldLogger) (*Digitizer, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline params: %w", err)
	}
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}
	return &Digitizer{params: params, logger: logger}, nil
}

// DefaultColor is the ink used when a caller does not pick one
func (d *Digitizer) DefaultColor() ColorProfile {
	return d.params.DefaultColor
}

// Digitize runs grayscale reduction, denoising, adaptive binarization and
// morphological cleanup over input (8-bit BGR), then paints the surviving
// ink with profile's color on a transparent background. The result is an
// 8-bit BGRA Mat of the same size that the caller must Close.
//
// ErrNoSignatureDetected is returned when no ink survives cleanup. The
// returned Mat must be closed on error too.
func (d *Digitizer) Digitize(input gocv.Mat, profile ColorProfile) (gocv.Mat, error) {
	if err := ValidateImage(input, d.params.MaxDimension); err != nil {
		return gocv.NewMat(), err
	}
	if !profile.Valid() {
		return gocv.NewMat(), fmt.Errorf("%w: unknown color profile %s", ErrInvalidInput, profile)
	}

	start := time.Now()
	log := d.logger.WithFields(logrus.Fields{
		"width":     input.Cols(),
		"height":    input.Rows(),
		"ink_color": profile.String(),
	})

	observe := func(stage algorithms.Algorithm, elapsed time.Duration) {
		log.WithFields(logrus.Fields{
			"stage":    stage.GetName(),
			"duration": elapsed,
		}).Debug("Stage complete")
	}

	mask, err := algorithms.Chain(input, observe, d.maskStages()...)
	defer mask.Close()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("building ink mask: %w", err)
	}

	inkPixels := gocv.CountNonZero(mask)
	if inkPixels == 0 {
		log.Info("No ink survived cleanup")
		return gocv.NewMat(), ErrNoSignatureDetected
	}

	output, err := algorithms.Chain(mask, observe, algorithms.NewCompositor(profile.Ink()))
	if err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("compositing: %w", err)
	}

	log.WithFields(logrus.Fields{
		"ink_pixels": inkPixels,
		"duration":   time.Since(start),
	}).Debug("Signature digitized")

	return output, nil
}

// maskStages is the fixed order producing the cleaned ink mask
func (d *Digitizer) maskStages() []algorithms.Algorithm {
	return []algorithms.Algorithm{
		algorithms.NewGrayscale(),
		algorithms.NewGaussianFilter(d.params.BlurKernel),
		algorithms.NewAdaptiveThreshold(d.params.BlockSize, d.params.Offset),
		algorithms.NewOpening(d.params.MorphKernel),
	}
}

// StageInfo describes one pipeline stage and its current settings
type StageInfo struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Parameters  []algorithms.ParameterInfo `json:"parameters,omitempty"`
}

// Stages lists the pipeline in execution order, compositor included
func (d *Digitizer) Stages() []StageInfo {
	stages := append(d.maskStages(), algorithms.NewCompositor(DefaultProfile.Ink()))
	info := make([]StageInfo, 0, len(stages))
	for _, stage := range stages {
		si := StageInfo{Name: stage.GetName(), Description: stage.GetDescription()}
		if p, ok := stage.(algorithms.Parameterized); ok {
			si.Parameters = p.GetParameterInfo()
		}
		info = append(info, si)
	}
	return info
}

var defaultDigitizer = mustDigitizer(DefaultParams())

func mustDigitizer(params Params) *Digitizer {
	d, err := NewDigitizer(params, nil)
	if err != nil {
		panic(err)
	}
	return d
}

// Digitize runs the pipeline with DefaultParams
func Digitize(input gocv.Mat, profile ColorProfile) (gocv.Mat, error) {
	return defaultDigitizer.Digitize(input, profile)
}
