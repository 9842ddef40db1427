package periphio

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// DefaultPWMClock is the counter clock of a PWM.
const DefaultPWMClock = 12 * physic.MegaHertz

// PWM maps period/compare counts onto a hardware PWM pin.
// The output is high for compare counts out of period+1.
// The counter isn't observable; ReadCounter returns the last written value.
type PWM struct {
	Pin   gpio.PinOut
	Clock physic.Frequency

	period  uint16
	compare uint16
	counter uint16
	enabled bool
	lock    sync.Mutex
}

// NewPWM creates a PWM with 8-bit period and 50% duty.
func NewPWM(pin gpio.PinOut) *PWM {
	return &PWM{Pin: pin, Clock: DefaultPWMClock, period: 255, compare: 128}
}

// Start implements periph.PWM.
func (p *PWM) Start() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.enabled = true
	return p.apply()
}

// Stop implements periph.PWM.
func (p *PWM) Stop() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.enabled = false
	return p.Pin.Out(gpio.Low)
}

// WritePeriod implements periph.PWM.
func (p *PWM) WritePeriod(period uint16) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.period = period
	return p.apply()
}

// WriteCompare implements periph.PWM.
func (p *PWM) WriteCompare(compare uint16) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.compare = compare
	return p.apply()
}

// WriteCounter implements periph.PWM.
func (p *PWM) WriteCounter(counter uint16) error {
	p.lock.Lock()
	p.counter = counter
	p.lock.Unlock()
	return nil
}

// ReadPeriod implements periph.PWM.
func (p *PWM) ReadPeriod() uint16 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.period
}

// ReadCompare implements periph.PWM.
func (p *PWM) ReadCompare() uint16 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.compare
}

// ReadCounter implements periph.PWM.
func (p *PWM) ReadCounter() uint16 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.counter
}

func (p *PWM) duty() gpio.Duty {
	cycle := int64(p.period) + 1
	duty := int64(gpio.DutyMax) * int64(p.compare) / cycle
	if duty > int64(gpio.DutyMax) {
		duty = int64(gpio.DutyMax)
	}
	return gpio.Duty(duty)
}

func (p *PWM) frequency() physic.Frequency {
	return p.Clock / physic.Frequency(int64(p.period)+1)
}

func (p *PWM) apply() error {
	if !p.enabled {
		return nil
	}
	return p.Pin.PWM(p.duty(), p.frequency())
}
