package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrShortFrame indicates less than 4 bytes are available for a frame.
	ErrShortFrame = errors.New("short frame")
	// ErrMalformedPacket indicates start/end markers or length are wrong.
	ErrMalformedPacket = errors.New("malformed packet")
	// ErrRequestFailed indicates the peer replied a failure.
	ErrRequestFailed = errors.New("request failed")
)

// PacketError describes a malformed packet.
type PacketError struct {
	Packet []byte
	Reason string
}

// Error implements error.
func (e *PacketError) Error() string {
	return fmt.Sprintf("%v: %s % x", ErrMalformedPacket, e.Reason, e.Packet)
}

// Unwrap returns ErrMalformedPacket.
func (e *PacketError) Unwrap() error {
	return ErrMalformedPacket
}
