package services

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ResizeMode selects how the processor bounds the output dimensions.
type ResizeMode string

const (
	// ResizeToWidth scales to at most MaxWidth pixels wide.
	ResizeToWidth ResizeMode = "width"
	// ResizeToFit fits the image inside FitWidth x FitHeight (contain).
	ResizeToFit ResizeMode = "fit"
)

type ImageProcessorOptions struct {
	Mode      ResizeMode
	MaxWidth  int
	FitWidth  int
	FitHeight int
	Quality   int
}

// ImageProcessor re-encodes uploaded images as bounded JPEGs.
type ImageProcessor struct {
	opts ImageProcessorOptions
}

func NewImageProcessor(opts ImageProcessorOptions) *ImageProcessor {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 80
	}
	if opts.Mode == "" {
		opts.Mode = ResizeToWidth
	}
	return &ImageProcessor{opts: opts}
}

// Process decodes a JPEG, PNG or GIF, applies EXIF orientation, bounds its
// size and encodes it as JPEG. Images already inside the bounds are never
// enlarged.
func (p *ImageProcessor) Process(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img = p.resize(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.opts.Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *ImageProcessor) resize(img image.Image) image.Image {
	bounds := img.Bounds()
	switch p.opts.Mode {
	case ResizeToFit:
		if bounds.Dx() <= p.opts.FitWidth && bounds.Dy() <= p.opts.FitHeight {
			return img
		}
		return imaging.Fit(img, p.opts.FitWidth, p.opts.FitHeight, imaging.Lanczos)
	default:
		if bounds.Dx() <= p.opts.MaxWidth {
			return img
		}
		return imaging.Resize(img, p.opts.MaxWidth, 0, imaging.Lanczos)
	}
}
