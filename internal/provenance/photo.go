package provenance

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/google/uuid"
)

// ImageFormat identifies an embeddable image encoding.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
)

// fpdfType returns the image type name understood by the PDF renderer.
func (f ImageFormat) fpdfType() string {
	if f == FormatPNG {
		return "PNG"
	}
	return "JPG"
}

// ParsePhotoPayload splits a photo payload into its declared format and
// decoded bytes. The payload is either raw base64 or
// "data:<media-type>;base64,<data>". Only image/png selects PNG; anything
// else is treated as JPEG.
func ParsePhotoPayload(payload string) (ImageFormat, []byte, error) {
	format := FormatJPEG
	encoded := payload
	if header, data, ok := strings.Cut(payload, ","); ok {
		encoded = data
		if strings.Contains(header, "image/png") {
			format = FormatPNG
		}
	}

	encoded = strings.Join(strings.Fields(encoded), "")
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return format, nil, fmt.Errorf("decode base64: %w", err)
	}
	if len(data) == 0 {
		return format, nil, fmt.Errorf("empty image data")
	}
	return format, data, nil
}

// stagedPhoto is a decoded image held in memory until it is embedded.
type stagedPhoto struct {
	name   string
	format ImageFormat
	buf    *bytes.Buffer
}

// release drops the staged bytes.
func (p *stagedPhoto) release() {
	if p.buf != nil {
		p.buf.Reset()
		p.buf = nil
	}
}

// stagePhoto decodes a payload, verifies it is a PNG or JPEG and, when a
// downscaler is configured, shrinks it to the maximum width. Each staged
// photo gets a unique name so concurrent documents never share one.
func (a *Assembler) stagePhoto(payload string) (*stagedPhoto, error) {
	declared, data, err := ParsePhotoPayload(payload)
	if err != nil {
		return nil, err
	}

	cfg, sniffed, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", declared, err)
	}
	format := ImageFormat(sniffed)
	if format != FormatJPEG && format != FormatPNG {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, sniffed)
	}

	photo := &stagedPhoto{
		name:   "photo-" + uuid.New().String(),
		format: format,
	}

	if a.downscaler != nil && cfg.Width > a.opts.MaxPhotoWidth {
		resized, err := a.downscaler.Downscale(data, format, a.opts.MaxPhotoWidth)
		if err != nil {
			return nil, fmt.Errorf("downscale image: %w", err)
		}
		data = resized
	}

	photo.buf = bytes.NewBuffer(data)
	return photo, nil
}
