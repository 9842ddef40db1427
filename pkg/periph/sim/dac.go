package sim

import (
	"errors"
	"fmt"

	"github.com/robotalks/perictl/pkg/periph/wave"
)

// ErrOutOfRange indicates a setting is not supported by the peripheral.
var ErrOutOfRange = errors.New("out of range")

// VDACConfig is the configuration owned by a simulated VDAC.
type VDACConfig struct {
	Value byte
	Range byte // 0: 1.020V, 1: 4.080V
	Speed byte // 0: low, 1: high
}

// VDAC simulates an 8-bit voltage DAC.
// Value reports the programmed value regardless of state.
type VDAC struct {
	device
	Config VDACConfig
}

// Start implements periph.VDAC.
func (d *VDAC) Start() error {
	return d.switchTo("start", StateEnabled)
}

// SetValue implements periph.VDAC.
func (d *VDAC) SetValue(v byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.Config.Value = v
	d.record("set_value", uint32(v))
	return nil
}

// SetRange implements periph.VDAC.
func (d *VDAC) SetRange(r byte) error {
	return d.setOption("set_range", &d.Config.Range, r, 1)
}

// SetSpeed implements periph.VDAC.
func (d *VDAC) SetSpeed(s byte) error {
	return d.setOption("set_speed", &d.Config.Speed, s, 1)
}

// Value implements periph.VDAC.
func (d *VDAC) Value() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.record("value", uint32(d.Config.Value))
	return d.Config.Value
}

// OutputMillivolts is the voltage being driven, 0 when disabled.
func (d *VDAC) OutputMillivolts() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.state == StateDisabled {
		return 0
	}
	fullScale := 1020
	if d.Config.Range == 1 {
		fullScale = 4080
	}
	return int(d.Config.Value) * fullScale / 255
}

// IDACConfig is the configuration owned by a simulated IDAC.
type IDACConfig struct {
	Value    byte
	Range    byte // 0: 31.875uA, 1: 255uA, 2: 2.04mA
	Polarity byte // 0: source, 1: sink
}

// IDAC simulates an 8-bit current DAC.
type IDAC struct {
	device
	Config IDACConfig
}

// Start implements periph.IDAC.
func (d *IDAC) Start() error {
	return d.switchTo("start", StateEnabled)
}

// SetValue implements periph.IDAC.
func (d *IDAC) SetValue(v byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.Config.Value = v
	d.record("set_value", uint32(v))
	return nil
}

// SetRange implements periph.IDAC.
func (d *IDAC) SetRange(r byte) error {
	return d.setOption("set_range", &d.Config.Range, r, 2)
}

// SetPolarity implements periph.IDAC.
func (d *IDAC) SetPolarity(p byte) error {
	return d.setOption("set_polarity", &d.Config.Polarity, p, 1)
}

// Value implements periph.IDAC.
func (d *IDAC) Value() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.record("value", uint32(d.Config.Value))
	return d.Config.Value
}

func (d *device) setOption(name string, opt *byte, v, limit byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if v > limit {
		return fmt.Errorf("%s %w: %d", name, ErrOutOfRange, v)
	}
	*opt = v
	d.record(name, uint32(v))
	return nil
}

// WaveDAC simulates a waveform DAC with two wave tables.
// The table being played is selected by SelectWave.
type WaveDAC struct {
	device
	Divider uint16

	waves    [2]wave.Table
	selected byte
	pos      int
	ticks    uint16
}

func newWaveDAC(dev device) *WaveDAC {
	d := &WaveDAC{device: dev, Divider: 1}
	t, _ := wave.Synthesize(wave.DefaultParams())
	d.waves[0], d.waves[1] = t, t
	return d
}

// Start implements periph.WaveDAC.
func (d *WaveDAC) Start() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.state, d.pos, d.ticks = StateActive, 0, 0
	d.record("start", 0)
	return nil
}

// SetWave implements periph.WaveDAC and loads the selected table.
func (d *WaveDAC) SetWave(t wave.Table) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if len(t) < wave.MinPoints || len(t) > wave.MaxPoints {
		return fmt.Errorf("wave %w: %d points", ErrOutOfRange, len(t))
	}
	d.waves[d.selected] = append(wave.Table(nil), t...)
	d.pos = 0
	d.record("set_wave", uint32(len(t)))
	return nil
}

// Wave implements periph.WaveDAC.
func (d *WaveDAC) Wave() wave.Table {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.record("wave", uint32(len(d.waves[d.selected])))
	return d.waves[d.selected]
}

// SelectWave implements periph.WaveDAC.
func (d *WaveDAC) SelectWave(n byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if int(n) >= len(d.waves) {
		return fmt.Errorf("wave select %w: %d", ErrOutOfRange, n)
	}
	d.selected, d.pos = n, 0
	d.record("select_wave", uint32(n))
	return nil
}

// SetClockDivider implements periph.WaveDAC.
func (d *WaveDAC) SetClockDivider(div uint16) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if div == 0 {
		return fmt.Errorf("clock divider %w: 0", ErrOutOfRange)
	}
	d.Divider = div
	d.record("set_clock_divider", uint32(div))
	return nil
}

// Output is the sample being driven, 0 when not active.
func (d *WaveDAC) Output() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.state != StateActive {
		return 0
	}
	return d.waves[d.selected][d.pos]
}

func (d *WaveDAC) tick() {
	if d.state != StateActive {
		return
	}
	if d.ticks++; d.ticks < d.Divider {
		return
	}
	d.ticks = 0
	d.pos = (d.pos + 1) % len(d.waves[d.selected])
}
