package comm

import "github.com/robotalks/perictl/pkg/periph"

// FrameParser assembles frames from bytes received.
type FrameParser struct {
	state parseState
	frame Frame
}

// TimerAction defines what to do with timer.
type TimerAction int

const (
	// TimerRestart to restart the timer.
	TimerRestart TimerAction = iota
	// TimerStop to stop/cancel the timer.
	TimerStop
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Receiving is true in the middle of a frame.
	Receiving bool
	// Request is set when a frame is complete.
	Request *periph.Request
	// Discarded is the number of bytes dropped from a partial frame.
	Discarded int
}

// WhatAboutTimer decides what to do with timer.
func (r ParseResult) WhatAboutTimer() TimerAction {
	if r.Receiving {
		return TimerRestart
	}
	return TimerStop
}

type parseState int

const (
	stateAddr   parseState = iota // waiting for address
	stateCmd                      // waiting for command
	stateDataHi                   // waiting for data high byte
	stateDataLo                   // waiting for data low byte
)

// Receiving indicates a partial frame is buffered.
func (p *FrameParser) Receiving() bool {
	return p.state != stateAddr
}

// Reset drops any partial frame.
func (p *FrameParser) Reset() (pr ParseResult) {
	pr.Discarded = int(p.state)
	p.state = stateAddr
	return
}

// Parse consumes one byte.
func (p *FrameParser) Parse(b byte) (pr ParseResult) {
	p.frame[p.state] = b
	if p.state == stateDataLo {
		req := p.frame.Request()
		pr.Request = &req
		p.state = stateAddr
		return
	}
	p.state++
	pr.Receiving = true
	return
}

// Timeout notifies the parser timer expires.
func (p *FrameParser) Timeout() ParseResult {
	return p.Reset()
}
