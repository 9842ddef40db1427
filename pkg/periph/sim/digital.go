package sim

// DigitalIn simulates an input status register. Read reports pin levels
// in any state; interrupts are latched only while enabled.
type DigitalIn struct {
	device
	Mask byte

	pins    byte
	pending byte
}

// Start implements periph.DigitalIn.
func (d *DigitalIn) Start() error {
	return d.switchTo("start", StateEnabled)
}

// SetPins drives the simulated input pins. Rising edges on masked
// bits become pending interrupts.
func (d *DigitalIn) SetPins(v byte) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.state != StateDisabled {
		d.pending |= v &^ d.pins & d.Mask
	}
	d.pins = v
}

// Read implements periph.DigitalIn.
func (d *DigitalIn) Read() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.record("read", uint32(d.pins))
	return d.pins
}

// SetInterruptMask implements periph.DigitalIn.
func (d *DigitalIn) SetInterruptMask(mask byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.Mask = mask
	d.record("set_interrupt_mask", uint32(mask))
	return nil
}

// ClearInterrupt implements periph.DigitalIn.
func (d *DigitalIn) ClearInterrupt() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	pending := d.pending
	d.pending = 0
	d.record("clear_interrupt", uint32(pending))
	return pending
}

// DigitalOut simulates an output control register.
// The latch is kept when stopped but the pins are released.
type DigitalOut struct {
	device

	latch byte
}

// Start implements periph.DigitalOut.
func (d *DigitalOut) Start() error {
	return d.switchTo("start", StateEnabled)
}

// Write implements periph.DigitalOut.
func (d *DigitalOut) Write(v byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.latch = v
	d.record("write", uint32(v))
	return nil
}

// Read implements periph.DigitalOut.
func (d *DigitalOut) Read() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.record("read", uint32(d.latch))
	return d.latch
}

// Pins reports the driven pin levels.
func (d *DigitalOut) Pins() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.state == StateDisabled {
		return 0
	}
	return d.latch
}
