package assemblifier

import "errors"

var (
	// ErrSizeConversion is returned when the buffer size implied by the
	// image dimensions cannot be represented as an int on this platform.
	ErrSizeConversion = errors.New("assemblifier: could not convert array length to int")

	// ErrCapacityExceeded is returned when the image would produce more
	// records than a 32 bit successor pointer can address.
	ErrCapacityExceeded = errors.New("assemblifier: resulting image is too big")

	// ErrFormat is returned when the dimensions and the pixel buffer
	// disagree.
	ErrFormat = errors.New("assemblifier: invalid image format")

	// ErrBrokenChain is returned by Walk when the successor pointers do not
	// visit every slot exactly once.
	ErrBrokenChain = errors.New("assemblifier: broken record chain")
)
