package comm

import (
	"context"
	"io"
	"sync"
	"time"
)

// MaxTransactionSize limits the bytes collected into one write transaction.
const MaxTransactionSize = 32

// StreamBus emulates an I2C slave bus over a byte stream.
// A write transaction is a burst of bytes ended by Timeout of idle,
// the read buffer is sent back once per transaction.
type StreamBus struct {
	ReadWriter io.ReadWriter
	Timeout    time.Duration

	initOnce  sync.Once
	startOnce sync.Once
	closeOnce sync.Once
	byteCh    chan byte
	errCh     chan error
	done      chan struct{}
	stopped   chan struct{}
	answer    bool
}

// NewStreamBus creates a StreamBus.
func NewStreamBus(rw io.ReadWriter) *StreamBus {
	return &StreamBus{ReadWriter: rw, Timeout: DefaultTimeout}
}

func (b *StreamBus) init() {
	b.byteCh, b.errCh = make(chan byte), make(chan error, 1)
	b.done, b.stopped = make(chan struct{}), make(chan struct{})
}

func (b *StreamBus) start() {
	go func() {
		defer close(b.stopped)
		buf := make([]byte, 1)
		for {
			if _, err := b.ReadWriter.Read(buf); err != nil {
				b.errCh <- err
				return
			}
			select {
			case b.byteCh <- buf[0]:
			case <-b.done:
				return
			}
		}
	}()
}

// Close stops delivering bytes to WaitWrite, the bus can't be used afterwards.
// A pending Read of the stream returns only when the stream is closed.
func (b *StreamBus) Close() error {
	b.initOnce.Do(b.init)
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}

// WaitWrite implements I2CBus.
func (b *StreamBus) WaitWrite(ctx context.Context) ([]byte, error) {
	b.initOnce.Do(b.init)
	b.startOnce.Do(b.start)
	var buf []byte
	select {
	case <-ctx.Done():
		b.Close()
		return nil, ctx.Err()
	case err := <-b.errCh:
		return nil, err
	case c := <-b.byteCh:
		buf = append(buf, c)
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for len(buf) < MaxTransactionSize {
		select {
		case <-ctx.Done():
			b.Close()
			return nil, ctx.Err()
		case err := <-b.errCh:
			return nil, err
		case c := <-b.byteCh:
			buf = append(buf, c)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(timeout)
		case <-timer.C:
			b.answer = true
			return buf, nil
		}
	}
	b.answer = true
	return buf, nil
}

// SetReadBuffer implements I2CBus. Nothing is sent before the first
// transaction as the stream has no read transaction of its own.
func (b *StreamBus) SetReadBuffer(buf []byte) error {
	if !b.answer {
		return nil
	}
	b.answer = false
	_, err := b.ReadWriter.Write(buf)
	return err
}

// PacketClient sends I2C-slave packets over a byte stream.
type PacketClient struct {
	ReadWriter io.ReadWriter

	lock sync.Mutex
}

// Send sends the packet and reads the status.
func (c *PacketClient) Send(ctx context.Context, pkt Packet) (byte, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if d, ok := c.ReadWriter.(readDeadliner); ok {
		deadline, _ := ctx.Deadline()
		if err := d.SetReadDeadline(deadline); err != nil {
			return StatusFail, err
		}
	}
	if _, err := pkt.WriteTo(c.ReadWriter); err != nil {
		return StatusFail, err
	}
	var status [1]byte
	if _, err := io.ReadFull(c.ReadWriter, status[:]); err != nil {
		return StatusFail, err
	}
	if status[0] != StatusDone {
		return status[0], ErrRequestFailed
	}
	return status[0], nil
}
