package algorithms

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func uniform(t *testing.T, rows, cols int, value float64, mt gocv.MatType) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(value, value, value, value), rows, cols, mt)
	t.Cleanup(func() { m.Close() })
	return m
}

func fromBytes(t *testing.T, rows, cols int, mt gocv.MatType, data []byte) gocv.Mat {
	t.Helper()
	m, err := gocv.NewMatFromBytes(rows, cols, mt, data)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func onlyLevels(data []byte, levels ...byte) bool {
	for _, v := range data {
		ok := false
		for _, l := range levels {
			if v == l {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
