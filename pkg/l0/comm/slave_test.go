package comm

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/perictl/pkg/periph"
)

type recordingDispatcher struct {
	lock sync.Mutex
	reqs []periph.Request
}

func (d *recordingDispatcher) Dispatch(req periph.Request) (periph.Result, error) {
	d.lock.Lock()
	d.reqs = append(d.reqs, req)
	d.lock.Unlock()
	if !req.Address.IsAssigned() {
		return periph.ResultFailure, errors.New("unknown address")
	}
	return periph.Result(uint32(req.Address)<<24 | uint32(req.Command)<<16 | req.Data), nil
}

func (d *recordingDispatcher) requests() []periph.Request {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]periph.Request(nil), d.reqs...)
}

type slaveTestCtx struct {
	host   net.Conn
	client *Client
	disp   *recordingDispatcher
	errCh  chan error
	cancel func()
}

func startSlave(t *testing.T, timeout time.Duration) *slaveTestCtx {
	host, dev := net.Pipe()
	tctx := &slaveTestCtx{
		host:   host,
		client: NewClient(host),
		disp:   &recordingDispatcher{},
		errCh:  make(chan error, 1),
	}
	s := NewSlave(dev, tctx.disp)
	s.Timeout = timeout
	ctx, cancel := context.WithCancel(context.Background())
	tctx.cancel = func() {
		cancel()
		host.Close()
		dev.Close()
	}
	go func() { tctx.errCh <- s.Run(ctx) }()
	return tctx
}

func TestSlaveClient(t *testing.T) {
	tctx := startSlave(t, DefaultTimeout)
	defer tctx.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := tctx.client.Do(ctx, periph.Request{Address: 0x08, Command: 0x02, Data: 0x1234})
	require.NoError(t, err)
	require.Equal(t, periph.Result(0x08021234), res)

	res, err = tctx.client.Do(ctx, periph.Request{Address: 0x20, Command: 0x00})
	require.Equal(t, ErrRequestFailed, err)
	require.Equal(t, periph.ResultFailure, res)

	res, err = tctx.client.Dispatch(periph.Request{Address: 0x13, Command: 0x0d})
	require.NoError(t, err)
	require.Equal(t, periph.Result(0x130d0000), res)

	require.Len(t, tctx.disp.requests(), 3)
}

func TestSlavePartialFrameTimeout(t *testing.T) {
	tctx := startSlave(t, 20*time.Millisecond)
	defer tctx.cancel()

	_, err := tctx.host.Write([]byte{0x03, 0x02})
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := tctx.client.Do(ctx, periph.Request{Address: 0x04, Command: 0x0d})
	require.NoError(t, err)
	require.Equal(t, periph.Result(0x040d0000), res)
	require.Equal(t, []periph.Request{{Address: 0x04, Command: 0x0d}}, tctx.disp.requests())
}

func TestSlaveStopsOnCancel(t *testing.T) {
	tctx := startSlave(t, DefaultTimeout)
	tctx.cancel()
	select {
	case err := <-tctx.errCh:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("slave didn't stop")
	}
}

func TestClientCanceled(t *testing.T) {
	host, _ := net.Pipe()
	defer host.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewClient(host).Do(ctx, periph.Request{})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, periph.ResultFailure, res)
}
