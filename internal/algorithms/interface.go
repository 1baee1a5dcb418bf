// Stage contracts for the ink extraction chain
package algorithms

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// Algorithm is one stage of the digitizing chain. Apply never mutates its
// input and always returns a freshly allocated Mat of the same size, which
// the caller owns and must Close.
type Algorithm interface {
	Apply(input gocv.Mat) (gocv.Mat, error)
	GetName() string
	GetDescription() string
	Validate() error
}

// ParameterInfo describes a tunable stage parameter
type ParameterInfo struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Description string  `json:"description"`
}

// Parameterized is implemented by stages with tunable settings
type Parameterized interface {
	GetParameterInfo() []ParameterInfo
}

// Observer is told how long each successful stage took
type Observer func(stage Algorithm, elapsed time.Duration)

// Chain applies stages in order, closing every intermediate result.
// The returned Mat belongs to the caller. observe may be nil.
func Chain(input gocv.Mat, observe Observer, stages ...Algorithm) (gocv.Mat, error) {
	current := input
	owned := false

	for _, stage := range stages {
		start := time.Now()
		next, err := stage.Apply(current)
		if err == nil && observe != nil {
			observe(stage, time.Since(start))
		}
		if owned {
			current.Close()
		}
		if err != nil {
			next.Close()
			return gocv.NewMat(), fmt.Errorf("%s: %w", stage.GetName(), err)
		}
		current = next
		owned = true
	}

	if !owned {
		return input.Clone(), nil
	}
	return current, nil
}

func checkInput(input gocv.Mat, channels int) error {
	if input.Empty() {
		return fmt.Errorf("input image is empty")
	}
	if input.Channels() != channels {
		return fmt.Errorf("expected %d channel(s), got %d", channels, input.Channels())
	}
	return nil
}

func checkOdd(name string, v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	if v%2 == 0 {
		return fmt.Errorf("%s must be odd, got %d", name, v)
	}
	return nil
}
