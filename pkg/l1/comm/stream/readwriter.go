// Package stream carries L1 packets over byte streams like TCP connections.
package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/golang/glog"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l1/comm"
)

// MaxPacketSize limits the size of a received packet.
const MaxPacketSize = 1 << 20

// ErrPacketTooLarge indicates the length prefix exceeds MaxPacketSize.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter implements PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	_, err := p.Write(buf)
	return err
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Listener accepts stream connections and serves them with a Hub.
type Listener struct {
	Listener net.Listener
	Hub      *comm.Hub
}

// Listen creates a TCP Listener.
func Listen(addr string, hub *comm.Hub) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{Listener: ln, Hub: hub}, nil
}

// Run implements Runnable.
func (l *Listener) Run(ctx context.Context) error {
	select {
	case <-l.Hub.Ready():
	case <-ctx.Done():
		l.Listener.Close()
		return ctx.Err()
	}
	return fx.RunWithContextCloser(ctx, l.Listener, func() error {
		glog.Infof("listening on %s", l.Listener.Addr())
		for {
			conn, err := l.Listener.Accept()
			if err != nil {
				return err
			}
			glog.V(1).Infof("accepted %s", conn.RemoteAddr())
			go func() {
				if err := l.Hub.Serve(New(conn)); err != nil && err != io.EOF {
					glog.V(1).Infof("connection %s closed: %v", conn.RemoteAddr(), err)
				}
				conn.Close()
			}()
		}
	})
}

// Dial connects to a Listener and returns a ControllerConn.
func Dial(addr string) (*ControllerConn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c := &ControllerConn{}
	c.Init(New(conn))
	return c, nil
}

// ControllerConn implements ControllerConn over a stream.
type ControllerConn struct {
	comm.ControllerConn
}
