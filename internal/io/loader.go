// Image decoding and encoding for the digitizer
package io

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"signature-digitizer/internal/core"
)

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp", ".webp", ".gif"}

// LoadImage reads and decodes the file at path. Files without an extension
// are sniffed by content.
func (il *ImageLoader) LoadImage(path string) (gocv.Mat, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gocv.NewMat(), fmt.Errorf("%w: input file not found: %s", core.ErrInvalidInput, path)
		}
		return gocv.NewMat(), fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return gocv.NewMat(), fmt.Errorf("%w: %s is a directory", core.ErrInvalidInput, path)
	}

	if filepath.Ext(path) != "" && !il.IsSupportedImageFormat(path) {
		return gocv.NewMat(), fmt.Errorf("%w: unsupported image format: %s", core.ErrDecodeFailure, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}

	mat, err := il.Decode(data)
	if err != nil {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return mat, nil
}

// Decode turns encoded bytes into an 8-bit BGR Mat. OpenCV is tried first;
// formats it cannot read fall back to the Go decoders, which also honor
// EXIF orientation.
func (il *ImageLoader) Decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), fmt.Errorf("%w: no image data", core.ErrInvalidInput)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		il.logDecoded("opencv", mat)
		return mat, nil
	}
	mat.Close()

	img, ferr := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if ferr != nil {
		return gocv.NewMat(), fmt.Errorf("%w: unsupported or corrupt image data", core.ErrDecodeFailure)
	}

	mat, err = gocv.ImageToMatRGB(img)
	if err != nil {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%w: %v", core.ErrDecodeFailure, err)
	}
	il.logDecoded("go", mat)
	return mat, nil
}

func (il *ImageLoader) logDecoded(decoder string, mat gocv.Mat) {
	il.logger.WithFields(logrus.Fields{
		"decoder":  decoder,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Debug("Image decoded")
}

// EncodePNG serializes mat, keeping its alpha channel
func (il *ImageLoader) EncodePNG(mat gocv.Mat) ([]byte, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("%w: cannot encode empty image", core.ErrEncodeFailure)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrEncodeFailure, err)
	}
	defer buf.Close()

	// GetBytes aliases native memory that Close releases
	out := bytes.Clone(buf.GetBytes())
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: encoder produced no data", core.ErrEncodeFailure)
	}
	return out, nil
}

// IsSupportedImageFormat checks the extension of path
func (il *ImageLoader) IsSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// SupportedFormats names the input formats LoadImage accepts
func SupportedFormats() []string {
	return []string{"JPEG", "PNG", "TIFF", "BMP", "WEBP", "GIF"}
}
