package periphio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

var (
	// ErrInvalidConfig indicates a configuration index is not supported.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrOutOfRange indicates a setting is not supported by the peripheral.
	ErrOutOfRange = errors.New("out of range")
)

// ADC converts on demand from an analog input pin.
// Reading while stopped returns the last converted value.
type ADC struct {
	Pin           analog.PinADC
	NumConfigs    byte
	CountsPerVolt uint16

	config byte
	offset int32
	active bool
	ready  bool
	result int32
	lock   sync.Mutex
}

// NewADC creates an ADC with a single configuration.
func NewADC(pin analog.PinADC, countsPerVolt uint16) *ADC {
	return &ADC{Pin: pin, NumConfigs: 1, CountsPerVolt: countsPerVolt, config: 1}
}

// Start implements periph.ADC.
func (a *ADC) Start() error {
	return a.StartConvert()
}

// Stop implements periph.ADC.
func (a *ADC) Stop() error {
	return a.StopConvert()
}

// StartConvert implements periph.ADC.
func (a *ADC) StartConvert() error {
	a.lock.Lock()
	a.active = true
	a.lock.Unlock()
	return nil
}

// StopConvert implements periph.ADC.
func (a *ADC) StopConvert() error {
	a.lock.Lock()
	a.active = false
	a.lock.Unlock()
	return nil
}

// IsEndConversion implements periph.ADC.
func (a *ADC) IsEndConversion() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.active && !a.ready {
		a.convert()
	}
	return a.ready
}

// GetResult32 implements periph.ADC.
func (a *ADC) GetResult32() int32 {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.active && !a.ready {
		a.convert()
	}
	a.ready = false
	return a.result
}

// CountsToMillivolts implements periph.ADC.
func (a *ADC) CountsToMillivolts(counts int32) int32 {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.CountsPerVolt == 0 {
		return 0
	}
	return int32((int64(counts) - int64(a.offset)) * 1000 / int64(a.CountsPerVolt))
}

// SelectConfig implements periph.ADC.
func (a *ADC) SelectConfig(config byte) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if config == 0 || config > a.NumConfigs {
		return fmt.Errorf("%w: %d", ErrInvalidConfig, config)
	}
	a.config = config
	return nil
}

// SetOffset implements periph.ADC.
func (a *ADC) SetOffset(offset int32) error {
	a.lock.Lock()
	a.offset = offset
	a.lock.Unlock()
	return nil
}

// SetGain implements periph.ADC.
func (a *ADC) SetGain(gain uint16) error {
	a.lock.Lock()
	a.CountsPerVolt = gain
	a.lock.Unlock()
	return nil
}

func (a *ADC) convert() {
	s, err := a.Pin.Read()
	if err != nil {
		glog.Warningf("adc %s read: %v", a.Pin, err)
		return
	}
	a.result, a.ready = s.Raw, true
}

// DAC drives an analog output pin from an 8-bit value.
// Range selects the full scale; Option is speed for voltage DACs
// and polarity for current DACs.
type DAC struct {
	Pin        analog.PinDAC
	FullScales []physic.ElectricPotential
	MaxOption  byte
	Sink       bool // Option 1 reverses the output

	value   byte
	rng     byte
	option  byte
	enabled bool
	lock    sync.Mutex
}

// VDAC full scales.
var VDACFullScales = []physic.ElectricPotential{1020 * physic.MilliVolt, 4080 * physic.MilliVolt}

// NewVDAC creates a voltage DAC.
func NewVDAC(pin analog.PinDAC) *DAC {
	return &DAC{Pin: pin, FullScales: VDACFullScales, MaxOption: 1}
}

// NewIDAC creates a current DAC. The pin carries the raw value, negative when sinking.
func NewIDAC(pin analog.PinDAC) *DAC {
	return &DAC{Pin: pin, FullScales: make([]physic.ElectricPotential, 3), MaxOption: 1, Sink: true}
}

// Start implements periph.VDAC and periph.IDAC.
func (d *DAC) Start() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.enabled = true
	return d.out()
}

// Stop implements periph.VDAC and periph.IDAC.
func (d *DAC) Stop() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.enabled = false
	return d.Pin.Out(analog.Sample{})
}

// SetValue implements periph.VDAC and periph.IDAC.
func (d *DAC) SetValue(v byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.value = v
	return d.out()
}

// SetRange implements periph.VDAC and periph.IDAC.
func (d *DAC) SetRange(r byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if int(r) >= len(d.FullScales) {
		return fmt.Errorf("%w: range %d", ErrOutOfRange, r)
	}
	d.rng = r
	return d.out()
}

// SetSpeed implements periph.VDAC.
func (d *DAC) SetSpeed(s byte) error {
	return d.setOption(s)
}

// SetPolarity implements periph.IDAC.
func (d *DAC) SetPolarity(p byte) error {
	return d.setOption(p)
}

// Value implements periph.VDAC and periph.IDAC.
func (d *DAC) Value() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.value
}

func (d *DAC) setOption(v byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if v > d.MaxOption {
		return fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	d.option = v
	return d.out()
}

func (d *DAC) out() error {
	if !d.enabled {
		return nil
	}
	s := analog.Sample{
		V:   d.FullScales[d.rng] * physic.ElectricPotential(d.value) / 255,
		Raw: int32(d.value),
	}
	if d.Sink && d.option == 1 {
		s.Raw = -s.Raw
	}
	return d.Pin.Out(s)
}
