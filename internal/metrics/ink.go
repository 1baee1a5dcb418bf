package metrics

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// InkStats summarizes the opaque pixels of a digitized signature
type InkStats struct {
	InkPixels int
	Total     int
	Bounds    image.Rectangle // empty when there is no ink
}

// Coverage is the opaque fraction of the image
func (s InkStats) Coverage() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.InkPixels) / float64(s.Total)
}

// Measure scans the alpha channel of a BGRA image
func Measure(output gocv.Mat) (InkStats, error) {
	if output.Empty() {
		return InkStats{}, fmt.Errorf("image is empty")
	}
	if output.Channels() != 4 {
		return InkStats{}, fmt.Errorf("expected 4 channels, got %d", output.Channels())
	}

	cols := output.Cols()
	data := output.ToBytes()
	stats := InkStats{Total: output.Rows() * cols}

	for i := 3; i < len(data); i += 4 {
		if data[i] == 0 {
			continue
		}
		stats.InkPixels++
		px := (i - 3) / 4
		p := image.Rect(px%cols, px/cols, px%cols+1, px/cols+1)
		stats.Bounds = stats.Bounds.Union(p)
	}
	return stats, nil
}

// InkPixels counts opaque pixels
type InkPixels struct{}

func NewInkPixels() *InkPixels { return &InkPixels{} }

func (m *InkPixels) Calculate(output gocv.Mat) (float64, error) {
	s, err := Measure(output)
	return float64(s.InkPixels), err
}

func (m *InkPixels) GetName() string        { return "Ink Pixels" }
func (m *InkPixels) GetDescription() string { return "Number of opaque pixels" }

// Coverage is the opaque fraction in [0, 1]
type Coverage struct{}

func NewCoverage() *Coverage { return &Coverage{} }

func (m *Coverage) Calculate(output gocv.Mat) (float64, error) {
	s, err := Measure(output)
	return s.Coverage(), err
}

func (m *Coverage) GetName() string        { return "Coverage" }
func (m *Coverage) GetDescription() string { return "Fraction of the image covered by ink" }

// BoundsWidth is the width of the ink bounding box
type BoundsWidth struct{}

func NewBoundsWidth() *BoundsWidth { return &BoundsWidth{} }

func (m *BoundsWidth) Calculate(output gocv.Mat) (float64, error) {
	s, err := Measure(output)
	return float64(s.Bounds.Dx()), err
}

func (m *BoundsWidth) GetName() string { return "Bounding Box Width" }
func (m *BoundsWidth) GetDescription() string {
	return "Width of the smallest rectangle enclosing all ink"
}

// BoundsHeight is the height of the ink bounding box
type BoundsHeight struct{}

func NewBoundsHeight() *BoundsHeight { return &BoundsHeight{} }

func (m *BoundsHeight) Calculate(output gocv.Mat) (float64, error) {
	s, err := Measure(output)
	return float64(s.Bounds.Dy()), err
}

func (m *BoundsHeight) GetName() string { return "Bounding Box Height" }
func (m *BoundsHeight) GetDescription() string {
	return "Height of the smallest rectangle enclosing all ink"
}
