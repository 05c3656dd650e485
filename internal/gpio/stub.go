//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealIO is not available on non-Linux platforms.
type RealIO struct{}

// NewRealIO returns an error on non-Linux platforms.
func NewRealIO(Mapping) (*RealIO, error) {
	return nil, errUnsupported
}

func (r *RealIO) ConfigureInputPullUp(Pin) error       { return errUnsupported }
func (r *RealIO) ConfigureOutput(Pin, bool) error      { return errUnsupported }
func (r *RealIO) Read(Pin) (bool, error)               { return false, errUnsupported }
func (r *RealIO) Toggle(Pin) error                     { return errUnsupported }
func (r *RealIO) Output(Port) (uint8, error)           { return 0, errUnsupported }
func (r *RealIO) WriteMasked(Port, uint8, uint8) error { return errUnsupported }
func (r *RealIO) Close() error                         { return nil }
