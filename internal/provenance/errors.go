package provenance

import "errors"

// Sentinel errors for document assembly.
var (
	ErrNoShiftLogs      = errors.New("no shift logs provided")
	ErrNoOutputPath     = errors.New("output path required")
	ErrPhotoEmbed       = errors.New("photo embed failed")
	ErrUnsupportedImage = errors.New("unsupported image format")
)
