package sim

import (
	"errors"
	"fmt"
)

// ADCConfig is the calibration and configuration owned by a simulated ADC.
type ADCConfig struct {
	Config        byte
	Offset        int32
	CountsPerVolt uint16
}

// ADC simulates a converter which samples Input on every tick while active.
// Reading while not active returns the last converted value.
type ADC struct {
	device
	Config     ADCConfig
	Resolution uint
	NumConfigs byte

	input  int32
	result int32
	ready  bool
}

// Resolutions and reference of simulated converters.
const (
	DelSigResolution = 16
	SARResolution    = 12
	RefMillivolts    = 2048
)

// ErrInvalidConfig indicates a configuration index is not supported.
var ErrInvalidConfig = errors.New("invalid config")

func newADC(dev device, delSig bool) *ADC {
	a := &ADC{device: dev, Resolution: SARResolution, NumConfigs: 1}
	if delSig {
		a.Resolution, a.NumConfigs = DelSigResolution, 4
	}
	a.Config = a.defaultConfig()
	a.input = int32(1) << (a.Resolution - 2)
	return a
}

func (a *ADC) defaultConfig() ADCConfig {
	return ADCConfig{
		Config:        1,
		CountsPerVolt: uint16((uint32(1) << a.Resolution) * 1000 / RefMillivolts),
	}
}

// SetInput sets the raw level sampled by the converter.
func (a *ADC) SetInput(counts int32) {
	a.lock.Lock()
	a.input = counts
	a.lock.Unlock()
}

// Start implements periph.ADC. The simulated converter free-runs once started.
func (a *ADC) Start() error {
	return a.switchTo("start", StateActive)
}

// StartConvert implements periph.ADC.
func (a *ADC) StartConvert() error {
	return a.switchTo("start_convert", StateActive)
}

// StopConvert implements periph.ADC.
func (a *ADC) StopConvert() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.state == StateActive {
		a.state = StateEnabled
	}
	a.record("stop_convert", 0)
	return nil
}

// IsEndConversion implements periph.ADC.
func (a *ADC) IsEndConversion() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.record("is_end_conversion", 0)
	return a.ready
}

// GetResult32 implements periph.ADC.
func (a *ADC) GetResult32() int32 {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.ready = false
	a.record("read", uint32(a.result))
	return a.result
}

// CountsToMillivolts implements periph.ADC. It is a pure conversion and isn't logged.
func (a *ADC) CountsToMillivolts(counts int32) int32 {
	a.lock.Lock()
	defer a.lock.Unlock()
	cpv := int64(a.Config.CountsPerVolt)
	if cpv == 0 {
		return 0
	}
	return int32((int64(counts) - int64(a.Config.Offset)) * 1000 / cpv)
}

// SelectConfig implements periph.ADC.
func (a *ADC) SelectConfig(config byte) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if config == 0 || config > a.NumConfigs {
		return fmt.Errorf("%w: %d", ErrInvalidConfig, config)
	}
	a.Config.Config = config
	a.record("select_config", uint32(config))
	return nil
}

// SetOffset implements periph.ADC.
func (a *ADC) SetOffset(offset int32) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.Config.Offset = offset
	a.record("set_offset", uint32(offset))
	return nil
}

// SetGain implements periph.ADC.
func (a *ADC) SetGain(gain uint16) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.Config.CountsPerVolt = gain
	a.record("set_gain", uint32(gain))
	return nil
}

func (a *ADC) tick() {
	if a.state != StateActive {
		return
	}
	full := int32(1)<<a.Resolution - 1
	v := a.input
	if v < 0 {
		v = 0
	} else if v > full {
		v = full
	}
	a.result, a.ready = v, true
}
