package simulator

import "errors"

// ErrInvalidInput is returned for malformed segment lists or parameters.
var ErrInvalidInput = errors.New("invalid input")
