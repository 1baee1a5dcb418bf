//go:build matprofile

package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestChainReleasesMatsOnFailure(t *testing.T) {
	src := uniform(t, 8, 8, 0, gocv.MatTypeCV8UC3)

	before := gocv.MatProfile.Count()
	out, err := Chain(src, nil, NewGrayscale(), NewGaussianFilter(5), NewAdaptiveThreshold(10, 2))
	require.Error(t, err)
	out.Close()
	assert.Equal(t, before, gocv.MatProfile.Count())
}
