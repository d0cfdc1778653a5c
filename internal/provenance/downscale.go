package provenance

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// DefaultJPEGQuality is the re-encode quality for downscaled JPEG photos.
const DefaultJPEGQuality = 60

// Downscaler shrinks an encoded image to at most maxWidth pixels wide,
// preserving aspect ratio and returning bytes in the same format.
// Images already within maxWidth are returned unchanged.
type Downscaler interface {
	Downscale(data []byte, format ImageFormat, maxWidth int) ([]byte, error)
}

// ImageDownscaler resamples with Catmull-Rom and re-encodes with fixed settings.
type ImageDownscaler struct {
	JPEGQuality int
}

// NewImageDownscaler creates a downscaler with the default JPEG quality.
func NewImageDownscaler() *ImageDownscaler {
	return &ImageDownscaler{JPEGQuality: DefaultJPEGQuality}
}

// Downscale implements Downscaler.
func (d *ImageDownscaler) Downscale(data []byte, format ImageFormat, maxWidth int) ([]byte, error) {
	if maxWidth <= 0 {
		return nil, fmt.Errorf("max width must be positive, got %d", maxWidth)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	if b.Dx() <= maxWidth {
		return data, nil
	}

	height := int(float64(b.Dy()) * float64(maxWidth) / float64(b.Dx()))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var out bytes.Buffer
	switch format {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&out, dst)
	case FormatJPEG:
		quality := d.JPEGQuality
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		err = jpeg.Encode(&out, dst, &jpeg.Options{Quality: quality})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return out.Bytes(), nil
}
