// Package testimage draws synthetic signature photographs: a dark polyline
// on noisy near-white paper with a shadow darkening towards the right edge.
package testimage

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
	"golang.org/x/exp/rand"
)

// StrokePoints is the default signature path
var StrokePoints = []image.Point{
	{100, 200}, {200, 100}, {300, 250}, {400, 150}, {500, 200}, {600, 300}, {700, 200},
}

// Options controls Signature
type Options struct {
	Width     int
	Height    int
	Points    []image.Point
	Ink       uint8 // gray level of the stroke
	Thickness int
	Shadow    uint8 // darkening applied at the right edge
	Seed      uint64
}

// DefaultOptions is an 800x400 page with a 3px stroke in gray 50
func DefaultOptions() Options {
	return Options{
		Width:     800,
		Height:    400,
		Points:    StrokePoints,
		Ink:       50,
		Thickness: 3,
		Shadow:    50,
		Seed:      1,
	}
}

// Signature renders the synthetic photograph as an 8-bit BGR Mat owned by
// the caller. The same options always produce the same pixels.
func Signature(opts Options) (gocv.Mat, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return gocv.NewMat(), fmt.Errorf("invalid size %dx%d", opts.Width, opts.Height)
	}

	paper := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), opts.Height, opts.Width, gocv.MatTypeCV8UC3)
	defer paper.Close()

	noise, err := paperNoise(opts.Width, opts.Height, opts.Seed)
	defer noise.Close()
	if err != nil {
		return gocv.NewMat(), err
	}

	img := gocv.NewMat()
	if err := gocv.AddWeighted(paper, 0.8, noise, 0.2, 0, &img); err != nil {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("blending paper noise: %w", err)
	}

	if len(opts.Points) > 1 {
		pts := gocv.NewPointsVectorFromPoints([][]image.Point{opts.Points})
		ink := color.RGBA{R: opts.Ink, G: opts.Ink, B: opts.Ink}
		err := gocv.PolylinesWithParams(&img, pts, false, ink, opts.Thickness, gocv.LineAA, 0)
		pts.Close()
		if err != nil {
			img.Close()
			return gocv.NewMat(), fmt.Errorf("drawing stroke: %w", err)
		}
	}

	shadow, err := shadowGradient(opts.Width, opts.Height, opts.Shadow)
	defer shadow.Close()
	if err != nil {
		img.Close()
		return gocv.NewMat(), err
	}

	out := gocv.NewMat()
	err = gocv.Subtract(img, shadow, &out)
	img.Close()
	if err != nil {
		out.Close()
		return gocv.NewMat(), fmt.Errorf("applying shadow: %w", err)
	}
	return out, nil
}

// Blank returns a uniformly colored BGR image
func Blank(width, height int, value uint8) gocv.Mat {
	v := float64(value)
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), height, width, gocv.MatTypeCV8UC3)
}

// paperNoise is light gray speckle in [240, 255] on every channel
func paperNoise(width, height int, seed uint64) (gocv.Mat, error) {
	r := rand.New(rand.NewSource(seed))
	data := make([]byte, width*height*3)
	for i := range data {
		data[i] = byte(240 + r.Intn(16))
	}
	return gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
}

// shadowGradient ramps linearly from 0 at the left edge to depth at the right
func shadowGradient(width, height int, depth uint8) (gocv.Mat, error) {
	row := make([]byte, width*3)
	for x := 0; x < width; x++ {
		v := byte(0)
		if width > 1 {
			v = byte(float64(depth) * float64(x) / float64(width-1))
		}
		row[x*3], row[x*3+1], row[x*3+2] = v, v, v
	}
	data := make([]byte, 0, len(row)*height)
	for y := 0; y < height; y++ {
		data = append(data, row...)
	}
	return gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
}

// StrokeLength is the summed segment length of a polyline
func StrokeLength(points []image.Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += math.Hypot(float64(points[i].X-points[i-1].X), float64(points[i].Y-points[i-1].Y))
	}
	return total
}

// DistanceToStroke is the shortest distance from p to any segment of points
func DistanceToStroke(p image.Point, points []image.Point) float64 {
	best := math.Inf(1)
	for i := 1; i < len(points); i++ {
		if d := segmentDistance(p, points[i-1], points[i]); d < best {
			best = d
		}
	}
	if len(points) == 1 {
		best = math.Hypot(float64(p.X-points[0].X), float64(p.Y-points[0].Y))
	}
	return best
}

func segmentDistance(p, a, b image.Point) float64 {
	px, py := float64(p.X), float64(p.Y)
	ax, ay := float64(a.X), float64(a.Y)
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)

	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}
