package comm

import (
	"context"
	"sync"

	"periph.io/x/conn/v3"

	"github.com/robotalks/perictl/pkg/periph"
)

// ConnClient provides host side operations over a periph.io connection,
// e.g. an SPI port or an i2c.Dev.
type ConnClient struct {
	Conn conn.Conn

	lock sync.Mutex
}

// NewConnClient creates a ConnClient.
func NewConnClient(c conn.Conn) *ConnClient {
	return &ConnClient{Conn: c}
}

// Do sends a request in one transaction and reads the result in the next.
func (c *ConnClient) Do(ctx context.Context, req periph.Request) (periph.Result, error) {
	if err := ctx.Err(); err != nil {
		return periph.ResultFailure, err
	}
	c.lock.Lock()
	defer c.lock.Unlock()

	f := EncodeFrame(req)
	if err := c.Conn.Tx(f[:], nil); err != nil {
		return periph.ResultFailure, err
	}
	var w []byte
	r := make([]byte, FrameSize)
	if c.Conn.Duplex() == conn.Full {
		// clock out zeros while the result is shifted in.
		w = make([]byte, FrameSize)
	}
	if err := c.Conn.Tx(w, r); err != nil {
		return periph.ResultFailure, err
	}
	return checkResult(req, r)
}

// Dispatch implements periph.Dispatcher.
func (c *ConnClient) Dispatch(req periph.Request) (periph.Result, error) {
	return c.Do(context.Background(), req)
}

// String implements fmt.Stringer.
func (c *ConnClient) String() string {
	return c.Conn.String()
}
