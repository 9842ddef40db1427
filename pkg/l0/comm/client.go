package comm

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/perictl/pkg/periph"
)

type readDeadliner interface {
	SetReadDeadline(time.Time) error
}

// Client provides host side operations over the frame link.
type Client struct {
	ReadWriter io.ReadWriter

	lock sync.Mutex
}

// NewClient creates a client over a byte stream.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{ReadWriter: rw}
}

// Do sends a request and waits for the result.
// The deadline of ctx is applied to the read if the stream supports it.
func (c *Client) Do(ctx context.Context, req periph.Request) (periph.Result, error) {
	if err := ctx.Err(); err != nil {
		return periph.ResultFailure, err
	}
	c.lock.Lock()
	defer c.lock.Unlock()

	if d, ok := c.ReadWriter.(readDeadliner); ok {
		deadline, _ := ctx.Deadline()
		if err := d.SetReadDeadline(deadline); err != nil {
			return periph.ResultFailure, err
		}
	}
	f := EncodeFrame(req)
	if _, err := f.WriteTo(c.ReadWriter); err != nil {
		return periph.ResultFailure, err
	}
	var buf [FrameSize]byte
	if _, err := io.ReadFull(c.ReadWriter, buf[:]); err != nil {
		return periph.ResultFailure, err
	}
	return checkResult(req, buf[:])
}

// Dispatch implements periph.Dispatcher.
func (c *Client) Dispatch(req periph.Request) (periph.Result, error) {
	return c.Do(context.Background(), req)
}

func checkResult(req periph.Request, b []byte) (periph.Result, error) {
	res, err := DecodeResult(b)
	if err != nil {
		return res, err
	}
	glog.V(3).Infof("request %s = %#x", req, uint32(res))
	if res == periph.ResultFailure {
		return res, ErrRequestFailed
	}
	return res, nil
}
