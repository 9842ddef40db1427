package periphio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/perictl/pkg/periph/wave"
)

// DefaultWaveClock is the sample clock before division.
const DefaultWaveClock = 1 * physic.KiloHertz

// WaveDAC plays the selected sample table on an analog output pin.
// Samples are clocked by Run at Clock/divider.
type WaveDAC struct {
	Pin   analog.PinDAC
	Clock physic.Frequency

	waves    [2]wave.Table
	selected byte
	divider  uint16
	active   bool
	pos      int
	lock     sync.Mutex
}

// NewWaveDAC creates a WaveDAC loaded with the default sine.
func NewWaveDAC(pin analog.PinDAC) *WaveDAC {
	w := &WaveDAC{Pin: pin, Clock: DefaultWaveClock, divider: 1}
	t, _ := wave.Synthesize(wave.DefaultParams())
	w.waves[0], w.waves[1] = t, t
	return w
}

// Start implements periph.WaveDAC.
func (w *WaveDAC) Start() error {
	w.lock.Lock()
	w.active, w.pos = true, 0
	w.lock.Unlock()
	return nil
}

// Stop implements periph.WaveDAC.
func (w *WaveDAC) Stop() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.active = false
	return w.Pin.Out(analog.Sample{})
}

// SetWave implements periph.WaveDAC.
func (w *WaveDAC) SetWave(t wave.Table) error {
	if n := len(t); n < wave.MinPoints || n > wave.MaxPoints {
		return fmt.Errorf("%w: %d", wave.ErrPointsOutOfRange, n)
	}
	w.lock.Lock()
	w.waves[w.selected] = append(wave.Table(nil), t...)
	w.pos = 0
	w.lock.Unlock()
	return nil
}

// Wave implements periph.WaveDAC.
func (w *WaveDAC) Wave() wave.Table {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.waves[w.selected]
}

// SelectWave implements periph.WaveDAC.
func (w *WaveDAC) SelectWave(n byte) error {
	if int(n) >= len(w.waves) {
		return fmt.Errorf("%w: wave %d", ErrOutOfRange, n)
	}
	w.lock.Lock()
	w.selected, w.pos = n, 0
	w.lock.Unlock()
	return nil
}

// SetClockDivider implements periph.WaveDAC.
func (w *WaveDAC) SetClockDivider(div uint16) error {
	if div == 0 {
		return fmt.Errorf("%w: divider 0", ErrOutOfRange)
	}
	w.lock.Lock()
	w.divider = div
	w.lock.Unlock()
	return nil
}

// Step outputs the next sample if active.
func (w *WaveDAC) Step() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if !w.active {
		return nil
	}
	t := w.waves[w.selected]
	if w.pos >= len(t) {
		w.pos = 0
	}
	v := t[w.pos]
	w.pos++
	return w.Pin.Out(analog.Sample{Raw: int32(v)})
}

func (w *WaveDAC) period() time.Duration {
	w.lock.Lock()
	defer w.lock.Unlock()
	f := w.Clock / physic.Frequency(w.divider)
	if f <= 0 {
		return time.Second
	}
	return f.Period()
}

// Run implements Runnable.
func (w *WaveDAC) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.period()):
			if err := w.Step(); err != nil {
				glog.Warningf("wave %s: %v", w.Pin, err)
			}
		}
	}
}
