package comm

import (
	"encoding/binary"
	"io"

	"github.com/robotalks/perictl/pkg/periph"
)

// FrameSize is the size of an SPI-style request frame and of its response.
const FrameSize = 4

// Frame is the encoded request: addr | cmd | data_hi | data_lo.
type Frame [FrameSize]byte

// EncodeFrame encodes a request. Only the low 16 bits of data are carried.
func EncodeFrame(req periph.Request) (f Frame) {
	f[0], f[1] = byte(req.Address), byte(req.Command)
	binary.BigEndian.PutUint16(f[2:], uint16(req.Data))
	return
}

// DecodeFrame decodes the first FrameSize bytes.
func DecodeFrame(b []byte) (periph.Request, error) {
	if len(b) < FrameSize {
		return periph.Request{}, ErrShortFrame
	}
	var f Frame
	copy(f[:], b)
	return f.Request(), nil
}

// FromWord creates a Frame from the 32-bit word assembled by the bus.
func FromWord(w uint32) (f Frame) {
	binary.BigEndian.PutUint32(f[:], w)
	return
}

// Word returns the frame as a 32-bit word, address in bits 31-24.
func (f Frame) Word() uint32 {
	return binary.BigEndian.Uint32(f[:])
}

// Request decodes the frame, data = data_hi<<8 | data_lo.
func (f Frame) Request() periph.Request {
	return periph.Request{
		Address: periph.Address(f[0]),
		Command: periph.Command(f[1]),
		Data:    uint32(f[2])<<8 | uint32(f[3]),
	}
}

// WriteTo writes encoded bytes.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f[:])
	return int64(n), err
}

// EncodeResult encodes a result word for the response.
func EncodeResult(res periph.Result) (b [FrameSize]byte) {
	binary.BigEndian.PutUint32(b[:], uint32(res))
	return
}

// DecodeResult decodes a response.
func DecodeResult(b []byte) (periph.Result, error) {
	if len(b) < FrameSize {
		return periph.ResultFailure, ErrShortFrame
	}
	return periph.Result(binary.BigEndian.Uint32(b)), nil
}
