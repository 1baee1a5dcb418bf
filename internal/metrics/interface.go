// Measurements over digitized signatures
package metrics

import (
	"gocv.io/x/gocv"
)

// Metric measures one property of a digitized (BGRA) signature
type Metric interface {
	// Calculate computes the metric value
	Calculate(output gocv.Mat) (float64, error)

	// GetName returns the metric name
	GetName() string

	// GetDescription returns the metric description
	GetDescription() string
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with the default metrics registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.RegisterDefaultMetrics()
	return e
}

// RegisterDefaultMetrics registers all default metrics
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register("ink_pixels", NewInkPixels())
	e.Register("coverage", NewCoverage())
	e.Register("bbox_width", NewBoundsWidth())
	e.Register("bbox_height", NewBoundsHeight())
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// CalculateAll calculates all registered metrics, skipping failures
func (e *Evaluator) CalculateAll(output gocv.Mat) map[string]float64 {
	results := make(map[string]float64)
	for name, metric := range e.metrics {
		if value, err := metric.Calculate(output); err == nil {
			results[name] = value
		}
	}
	return results
}
