package controlplane

import "errors"

// Sentinel errors for control plane operations.
var (
	ErrNoSegments        = errors.New("no segments provided")
	ErrNoShiftLogs       = errors.New("no shift_logs provided")
	ErrInvalidOutputName = errors.New("output_name must be a plain file name")
)
