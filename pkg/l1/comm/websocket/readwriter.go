// Package websocket carries L1 packets as binary websocket messages.
package websocket

import (
	"context"
	"net"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l1/comm"
)

// ReadWriter implements PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Handler creates the http.Handler serving websocket clients with a Hub.
func Handler(hub *comm.Hub) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		glog.V(1).Infof("websocket connected from %s", conn.Request().RemoteAddr)
		if err := hub.Serve(New(conn)); err != nil {
			glog.V(1).Infof("websocket closed: %v", err)
		}
	})
}

// Server serves websocket clients on Path.
// Listener is used when set, otherwise Addr is listened on.
type Server struct {
	Addr     string
	Path     string
	Hub      *comm.Hub
	Listener net.Listener
}

// DefaultPath is the default websocket endpoint.
const DefaultPath = "/ws"

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, Handler(s.Hub))
	ln := s.Listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.Addr); err != nil {
			return err
		}
	}
	server := &http.Server{Handler: mux}
	select {
	case <-s.Hub.Ready():
	case <-ctx.Done():
		ln.Close()
		return ctx.Err()
	}
	return fx.RunWithContextCancel(ctx, func() { server.Close() }, func() error {
		glog.Infof("websocket serving on %s%s", ln.Addr(), path)
		return server.Serve(ln)
	})
}

// Dial connects to a websocket Server and returns a ControllerConn.
func Dial(url, origin string) (*ControllerConn, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	c := &ControllerConn{}
	c.Init(New(conn))
	return c, nil
}

// ControllerConn implements ControllerConn over websocket.
type ControllerConn struct {
	comm.ControllerConn
}
