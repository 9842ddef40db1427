package comm

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/perictl/pkg/periph"
)

// DefaultTimeout is the idle time after which a partial frame is discarded.
const DefaultTimeout = 100 * time.Millisecond

// Slave serves the frame link on the controller side.
// Each complete frame is dispatched and answered before the next byte is
// consumed, so exactly one request is in flight.
type Slave struct {
	ReadWriter io.ReadWriter
	Dispatcher periph.Dispatcher
	Timeout    time.Duration

	parser FrameParser
	timer  <-chan time.Time
}

// NewSlave creates a Slave.
func NewSlave(rw io.ReadWriter, d periph.Dispatcher) *Slave {
	return &Slave{
		ReadWriter: rw,
		Dispatcher: d,
		Timeout:    DefaultTimeout,
	}
}

// Run processes the link until the context is done or reading fails.
func (s *Slave) Run(ctx context.Context) error {
	s.applyParseResult(s.parser.Reset())

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			if err := s.applyParseResult(s.parser.Parse(b)); err != nil {
				return err
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-s.timer:
			s.applyParseResult(s.parser.Timeout())
		}
	}
}

func (s *Slave) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		_, err := s.ReadWriter.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Slave) applyParseResult(pr ParseResult) error {
	if pr.Discarded > 0 {
		glog.Warningf("frame timeout, %d bytes discarded", pr.Discarded)
	}
	switch pr.WhatAboutTimer() {
	case TimerRestart:
		if s.Timeout > 0 {
			s.timer = time.After(s.Timeout)
		}
	case TimerStop:
		s.timer = nil
	}
	if pr.Request == nil {
		return nil
	}
	res, _ := s.Dispatcher.Dispatch(*pr.Request)
	out := EncodeResult(res)
	_, err := s.ReadWriter.Write(out[:])
	return err
}
