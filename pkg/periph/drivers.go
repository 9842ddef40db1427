package periph

import (
	"errors"
	"fmt"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/periph/wave"
)

// Switch turns a peripheral on and off.
// Stop must be idempotent.
type Switch interface {
	Start() error
	Stop() error
}

// ADC is a delta-sigma or SAR converter.
// GetResult32 returns the last converted value, which is stale when
// conversion is stopped.
type ADC interface {
	Switch
	StartConvert() error
	StopConvert() error
	IsEndConversion() bool
	GetResult32() int32
	CountsToMillivolts(counts int32) int32
	SelectConfig(config byte) error
	SetOffset(offset int32) error
	SetGain(gain uint16) error
}

// VDAC is an 8-bit voltage DAC.
type VDAC interface {
	Switch
	SetValue(v byte) error
	SetRange(r byte) error
	SetSpeed(s byte) error
	Value() byte
}

// IDAC is an 8-bit current DAC.
type IDAC interface {
	Switch
	SetValue(v byte) error
	SetRange(r byte) error
	SetPolarity(p byte) error
	Value() byte
}

// WaveDAC plays a sample table repeatedly.
type WaveDAC interface {
	Switch
	SetWave(t wave.Table) error
	Wave() wave.Table
	SelectWave(n byte) error
	SetClockDivider(div uint16) error
}

// PWM is a pulse width modulator.
type PWM interface {
	Switch
	WritePeriod(period uint16) error
	WriteCompare(compare uint16) error
	WriteCounter(counter uint16) error
	ReadPeriod() uint16
	ReadCompare() uint16
	ReadCounter() uint16
}

// DigitalIn is an 8-bit input status register.
type DigitalIn interface {
	Switch
	Read() byte
	SetInterruptMask(mask byte) error
	// ClearInterrupt returns and clears the pending interrupt bits.
	ClearInterrupt() byte
}

// DigitalOut is an 8-bit output control register.
type DigitalOut interface {
	Switch
	Write(v byte) error
	Read() byte
}

// Collection holds one driver per assigned address.
type Collection struct {
	ADCs     [NumADC]ADC
	VDACs    [NumVDAC]VDAC
	IDACs    [NumIDAC]IDAC
	WaveDACs [NumWaveDAC]WaveDAC
	PWMs     [NumPWM]PWM
	DigIns   [NumDigIn]DigitalIn
	DigOuts  [NumDigOut]DigitalOut
}

// ErrMissingDriver indicates a peripheral has no driver in the collection.
var ErrMissingDriver = errors.New("missing driver")

// Switch gets the Switch of the peripheral at the address.
func (c *Collection) Switch(addr Address) Switch {
	i := addr.Index()
	switch addr.Kind() {
	case KindADC:
		return c.ADCs[i]
	case KindVDAC:
		return c.VDACs[i]
	case KindIDAC:
		return c.IDACs[i]
	case KindWaveDAC:
		return c.WaveDACs[i]
	case KindPWM:
		return c.PWMs[i]
	case KindDigitalIn:
		return c.DigIns[i]
	case KindDigitalOut:
		return c.DigOuts[i]
	}
	return nil
}

// Validate ensures every assigned address has a driver.
func (c *Collection) Validate() error {
	for _, addr := range Addresses() {
		if c.Switch(addr) == nil {
			return fmt.Errorf("%s: %w", addr, ErrMissingDriver)
		}
	}
	return nil
}

// StopAll stops every peripheral and aggregates errors.
func (c *Collection) StopAll() error {
	var errs fx.AggregatedError
	for _, addr := range Addresses() {
		if sw := c.Switch(addr); sw != nil {
			if err := sw.Stop(); err != nil {
				errs.Add(fmt.Errorf("%s: %v", addr, err))
			}
		}
	}
	return errs.Aggregate()
}
