// Package codec converts between encoded image files and the images the pipeline works on
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	// Register decoders for formats photo libraries commonly hand us
	_ "golang.org/x/image/webp"
)

// Format is an output image format
type Format int

const (
	// JPEG represents the JPEG format
	JPEG Format = iota
	// PNG represents the PNG format
	PNG
)

const jpegQuality = 90

// Errors
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Decode decodes an image, applying any EXIF orientation
func Decode(data []byte) (*image.NRGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	return imaging.Clone(img), nil
}

// Encode encodes an image in the given format
func Encode(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer

	var err error
	switch format {
	case JPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	case PNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		return nil, ErrUnsupportedFormat
	}

	if err != nil {
		return nil, fmt.Errorf("error encoding image: %w", err)
	}

	return buf.Bytes(), nil
}

// FormatFromExtension returns the format for a file extension, defaulting to JPEG when there is none
func FormatFromExtension(extension string) (Format, error) {
	switch strings.ToLower(extension) {
	case "", ".jpg", ".jpeg":
		return JPEG, nil
	case ".png":
		return PNG, nil
	default:
		return 0, ErrUnsupportedFormat
	}
}

// Extension returns the file extension for a format
func (f Format) Extension() string {
	switch f {
	case PNG:
		return ".png"
	default:
		return ".jpg"
	}
}

// ContentType returns the media type for a format
func (f Format) ContentType() string {
	switch f {
	case PNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// String returns the name of the format
func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	default:
		return "jpeg"
	}
}
