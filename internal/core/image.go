package core

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ImageMetadata describes a decoded input
type ImageMetadata struct {
	Width    int
	Height   int
	Channels int
}

// MetadataOf reads the dimensions of mat
func MetadataOf(mat gocv.Mat) ImageMetadata {
	return ImageMetadata{
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
	}
}

// ValidateImage checks that mat is a non-empty 8-bit BGR image no larger
// than maxDimension on either side (0 means unbounded).
func ValidateImage(mat gocv.Mat, maxDimension int) error {
	if mat.Empty() {
		return fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("%w: invalid dimensions: %dx%d", ErrInvalidInput, mat.Cols(), mat.Rows())
	}

	if mat.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("%w: expected 8-bit 3-channel image, got %d channel(s) of type %v",
			ErrInvalidInput, mat.Channels(), mat.Type())
	}

	if maxDimension > 0 && (mat.Cols() > maxDimension || mat.Rows() > maxDimension) {
		return fmt.Errorf("%w: image too large: %dx%d (max: %d)",
			ErrInvalidInput, mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}
