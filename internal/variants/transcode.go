// Package variants generates the fixed matrix of resized renditions for one
// stored original and records them in the image catalog.
package variants

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/gen2brain/avif"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/webp"

	"github.com/fpang/instagram-image-sync/internal/catalog"
)

// Formats is the set of output formats generated for every original.
var Formats = []catalog.Format{catalog.FormatJPG, catalog.FormatWebP, catalog.FormatAVIF}

// Widths is the set of target pixel widths, ascending.
var Widths = []int{320, 480, 768, 1024, 1280, 1920}

// Transcoder decodes an original and renders it at a target width and
// format. StdTranscoder is the production implementation; tests substitute a
// fake to keep the generator tests independent of codec behavior.
type Transcoder interface {
	Decode(data []byte) (image.Image, error)
	Transcode(img image.Image, width int, format catalog.Format) ([]byte, error)
}

// StdTranscoder resizes with golang.org/x/image/draw and encodes with the
// stdlib JPEG encoder, chai2010/webp, and gen2brain/avif.
type StdTranscoder struct{}

// Decode parses original bytes. JPEG, PNG, and WebP are supported — the
// formats Instagram serves for image media.
func (StdTranscoder) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode original: %w", err)
	}
	return img, nil
}

// Transcode resizes img to the target width (aspect ratio preserved, height
// derived) and encodes it in the requested format.
func (StdTranscoder) Transcode(img image.Image, width int, format catalog.Format) ([]byte, error) {
	resized := resizeToWidth(img, width)

	var buf bytes.Buffer
	var err error
	switch format {
	case catalog.FormatJPG:
		err = jpeg.Encode(&buf, resized, nil)
	case catalog.FormatWebP:
		err = webp.Encode(&buf, resized, &webp.Options{Quality: 80})
	case catalog.FormatAVIF:
		err = avif.Encode(&buf, resized)
	default:
		return nil, fmt.Errorf("unknown image format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s at %dpx: %w", format, width, err)
	}
	return buf.Bytes(), nil
}

// resizeToWidth scales img to the target width, deriving the height from the
// source aspect ratio. Upscaling is allowed: every width in the matrix is
// produced regardless of the original's dimensions.
func resizeToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == width {
		return img
	}

	height := int(math.Round(float64(bounds.Dy()) * float64(width) / float64(bounds.Dx())))
	if height < 1 {
		height = 1
	}

	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}
