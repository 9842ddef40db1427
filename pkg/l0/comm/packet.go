package comm

import "io"

// I2C-slave packet markers and status bytes.
const (
	PacketSOP  byte = 0x01
	PacketEOP  byte = 0x17
	PacketSize      = 3

	StatusDone byte = 0x00
	StatusFail byte = 0xff
)

// Packet is the I2C-slave packet carrying a single command.
type Packet struct {
	Code byte
}

// Bytes returns encoded bytes for sending.
func (p Packet) Bytes() []byte {
	return []byte{PacketSOP, p.Code, PacketEOP}
}

// WriteTo writes encoded bytes.
func (p Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// ParsePacket validates a complete transaction buffer and extracts the packet.
func ParsePacket(b []byte) (Packet, error) {
	switch {
	case len(b) != PacketSize:
		return Packet{}, &PacketError{Packet: b, Reason: "length mismatch"}
	case b[0] != PacketSOP:
		return Packet{}, &PacketError{Packet: b, Reason: "bad SOP"}
	case b[2] != PacketEOP:
		return Packet{}, &PacketError{Packet: b, Reason: "bad EOP"}
	}
	return Packet{Code: b[1]}, nil
}
