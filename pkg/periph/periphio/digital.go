package periphio

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// BankWidth is the number of pins in a digital bank.
const BankWidth = 8

// DigitalOut drives up to 8 GPIO pins from a latch.
// Stopping drives all pins low, the latch is kept.
type DigitalOut struct {
	Pins [BankWidth]gpio.PinOut

	latch   byte
	enabled bool
	lock    sync.Mutex
}

// Start implements periph.DigitalOut.
func (d *DigitalOut) Start() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.enabled = true
	return d.drive(d.latch)
}

// Stop implements periph.DigitalOut.
func (d *DigitalOut) Stop() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.enabled = false
	return d.drive(0)
}

// Write implements periph.DigitalOut.
func (d *DigitalOut) Write(v byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.latch = v
	if !d.enabled {
		return nil
	}
	return d.drive(v)
}

// Read implements periph.DigitalOut.
func (d *DigitalOut) Read() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.latch
}

func (d *DigitalOut) drive(v byte) error {
	for n, p := range d.Pins {
		if p == nil {
			continue
		}
		if err := p.Out(gpio.Level(v&(1<<uint(n)) != 0)); err != nil {
			return err
		}
	}
	return nil
}

// DigitalIn samples up to 8 GPIO pins.
// Interrupts are latched in software on rising edges seen while sampling.
type DigitalIn struct {
	Pins [BankWidth]gpio.PinIn
	Pull gpio.Pull

	mask    byte
	last    byte
	pending byte
	enabled bool
	lock    sync.Mutex
}

// Start implements periph.DigitalIn.
func (d *DigitalIn) Start() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	for _, p := range d.Pins {
		if p == nil {
			continue
		}
		if err := p.In(d.Pull, gpio.NoEdge); err != nil {
			return err
		}
	}
	d.enabled = true
	d.last = d.levels()
	return nil
}

// Stop implements periph.DigitalIn.
func (d *DigitalIn) Stop() error {
	d.lock.Lock()
	d.enabled = false
	d.lock.Unlock()
	return nil
}

// Read implements periph.DigitalIn. Pin levels are reported in any state.
func (d *DigitalIn) Read() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.sample()
}

// SetInterruptMask implements periph.DigitalIn.
func (d *DigitalIn) SetInterruptMask(mask byte) error {
	d.lock.Lock()
	d.mask = mask
	d.lock.Unlock()
	return nil
}

// ClearInterrupt implements periph.DigitalIn.
func (d *DigitalIn) ClearInterrupt() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.sample()
	pending := d.pending
	d.pending = 0
	return pending
}

func (d *DigitalIn) sample() byte {
	v := d.levels()
	if d.enabled {
		d.pending |= v &^ d.last & d.mask
	}
	d.last = v
	return v
}

func (d *DigitalIn) levels() (v byte) {
	for n, p := range d.Pins {
		if p != nil && p.Read() == gpio.High {
			v |= 1 << uint(n)
		}
	}
	return
}
