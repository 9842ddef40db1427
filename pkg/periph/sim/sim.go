// Package sim provides simulated peripheral drivers.
//
// Every driver owns its state and configuration. All drivers of a Board
// share one lock so the Board can be ticked from its own goroutine while
// requests are dispatched.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/robotalks/perictl/pkg/periph"
)

// State is the power/run state of a simulated peripheral.
type State int

// States.
const (
	StateDisabled State = iota
	StateEnabled
	StateActive
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	case StateActive:
		return "active"
	}
	return "unknown"
}

// Op is a recorded driver operation.
type Op struct {
	Addr periph.Address
	Name string
	Arg  uint32
}

// Log records driver operations in order.
type Log struct {
	ops  []Op
	lock sync.Mutex
}

// Ops returns a copy of recorded operations.
func (l *Log) Ops() []Op {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]Op(nil), l.ops...)
}

// Len returns the number of recorded operations.
func (l *Log) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.ops)
}

// Reset clears the log.
func (l *Log) Reset() {
	l.lock.Lock()
	l.ops = nil
	l.lock.Unlock()
}

func (l *Log) add(op Op) {
	l.lock.Lock()
	l.ops = append(l.ops, op)
	l.lock.Unlock()
}

type device struct {
	addr  periph.Address
	state State
	lock  *sync.Mutex
	log   *Log
}

func (d *device) record(name string, arg uint32) {
	if d.log != nil {
		d.log.add(Op{Addr: d.addr, Name: name, Arg: arg})
	}
}

// State gets the current state.
func (d *device) State() State {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.state
}

func (d *device) switchTo(name string, state State) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.state = state
	d.record(name, 0)
	return nil
}

// Stop implements periph.Switch.
func (d *device) Stop() error {
	return d.switchTo("stop", StateDisabled)
}

// Board is a full set of simulated peripherals.
type Board struct {
	Interval time.Duration
	Log      Log

	ADCs     [periph.NumADC]*ADC
	VDACs    [periph.NumVDAC]*VDAC
	IDACs    [periph.NumIDAC]*IDAC
	WaveDACs [periph.NumWaveDAC]*WaveDAC
	PWMs     [periph.NumPWM]*PWM
	DigIns   [periph.NumDigIn]*DigitalIn
	DigOuts  [periph.NumDigOut]*DigitalOut

	lock sync.Mutex
}

// DefaultInterval is the default tick interval of a running Board.
const DefaultInterval = 10 * time.Millisecond

// NewBoard creates a Board with all peripherals disabled.
func NewBoard() *Board {
	b := &Board{Interval: DefaultInterval}
	for _, addr := range periph.Addresses() {
		dev := device{addr: addr, lock: &b.lock, log: &b.Log}
		i := addr.Index()
		switch addr.Kind() {
		case periph.KindADC:
			b.ADCs[i] = newADC(dev, addr == periph.AddrADCDelSig)
		case periph.KindVDAC:
			b.VDACs[i] = &VDAC{device: dev}
		case periph.KindIDAC:
			b.IDACs[i] = &IDAC{device: dev}
		case periph.KindWaveDAC:
			b.WaveDACs[i] = newWaveDAC(dev)
		case periph.KindPWM:
			b.PWMs[i] = newPWM(dev)
		case periph.KindDigitalIn:
			b.DigIns[i] = &DigitalIn{device: dev}
		case periph.KindDigitalOut:
			b.DigOuts[i] = &DigitalOut{device: dev}
		}
	}
	return b
}

// Collection exposes the board as driver collection.
func (b *Board) Collection() *periph.Collection {
	c := &periph.Collection{}
	for i, d := range b.ADCs {
		c.ADCs[i] = d
	}
	for i, d := range b.VDACs {
		c.VDACs[i] = d
	}
	for i, d := range b.IDACs {
		c.IDACs[i] = d
	}
	for i, d := range b.WaveDACs {
		c.WaveDACs[i] = d
	}
	for i, d := range b.PWMs {
		c.PWMs[i] = d
	}
	for i, d := range b.DigIns {
		c.DigIns[i] = d
	}
	for i, d := range b.DigOuts {
		c.DigOuts[i] = d
	}
	return c
}

// Tick advances all running peripherals by one step.
func (b *Board) Tick() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, d := range b.ADCs {
		d.tick()
	}
	for _, d := range b.WaveDACs {
		d.tick()
	}
	for _, d := range b.PWMs {
		d.tick()
	}
}

// Run implements Runnable.
func (b *Board) Run(ctx context.Context) error {
	interval := b.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.Tick()
		}
	}
}
