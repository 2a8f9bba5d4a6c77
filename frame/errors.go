package frame

import "errors"

// Errors
var (
	ErrShortHeader        = errors.New("frame: short header")
	ErrBadMagic           = errors.New("frame: bad magic")
	ErrUnsupportedVersion = errors.New("frame: unsupported version")
	ErrUnknownCodec       = errors.New("frame: unknown codec")
	ErrPayloadTooLarge    = errors.New("frame: payload too large")
	ErrTruncated          = errors.New("frame: truncated payload")
)
