package periphio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/perictl/pkg/l0/dispatch"
	"github.com/robotalks/perictl/pkg/periph"
	"github.com/robotalks/perictl/pkg/periph/sim"
	"github.com/robotalks/perictl/pkg/periph/wave"
)

type testAnalogPin struct {
	name    string
	in      analog.Sample
	readErr error
	outs    []analog.Sample
	lock    sync.Mutex
}

func (p *testAnalogPin) String() string   { return p.name }
func (p *testAnalogPin) Name() string     { return p.name }
func (p *testAnalogPin) Number() int      { return -1 }
func (p *testAnalogPin) Function() string { return "analog" }
func (p *testAnalogPin) Halt() error      { return nil }

func (p *testAnalogPin) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{Raw: 0xfff}
}

func (p *testAnalogPin) Read() (analog.Sample, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.in, p.readErr
}

func (p *testAnalogPin) Out(s analog.Sample) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.outs = append(p.outs, s)
	return nil
}

func (p *testAnalogPin) last() analog.Sample {
	p.lock.Lock()
	defer p.lock.Unlock()
	if len(p.outs) == 0 {
		return analog.Sample{}
	}
	return p.outs[len(p.outs)-1]
}

func (p *testAnalogPin) count() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.outs)
}

func newTestPins(n int) []*gpiotest.Pin {
	pins := make([]*gpiotest.Pin, n)
	for i := range pins {
		pins[i] = &gpiotest.Pin{N: "GPIO" + string(rune('A'+i)), Num: i}
	}
	return pins
}

func TestDigitalOut(t *testing.T) {
	pins := newTestPins(3)
	d := &DigitalOut{}
	for n, p := range pins {
		d.Pins[n] = p
	}
	require.NoError(t, d.Write(0x05))
	require.Equal(t, gpio.Low, pins[0].L)
	require.NoError(t, d.Start())
	require.Equal(t, gpio.High, pins[0].L)
	require.Equal(t, gpio.Low, pins[1].L)
	require.Equal(t, gpio.High, pins[2].L)
	require.NoError(t, d.Write(0x02))
	require.Equal(t, []gpio.Level{gpio.Low, gpio.High, gpio.Low}, []gpio.Level{pins[0].L, pins[1].L, pins[2].L})
	require.NoError(t, d.Stop())
	require.NoError(t, d.Stop())
	require.Equal(t, gpio.Low, pins[1].L)
	require.Equal(t, byte(0x02), d.Read())
}

func TestDigitalIn(t *testing.T) {
	pins := newTestPins(2)
	d := &DigitalIn{Pull: gpio.Float}
	d.Pins[0], d.Pins[7] = pins[0], pins[1]
	pins[1].L = gpio.High
	require.Equal(t, byte(0x80), d.Read())

	require.NoError(t, d.SetInterruptMask(0x01))
	require.NoError(t, d.Start())
	pins[0].L = gpio.High
	require.Equal(t, byte(0x81), d.Read())
	pins[0].L = gpio.Low
	require.Equal(t, byte(0x01), d.ClearInterrupt())
	require.Zero(t, d.ClearInterrupt())

	require.NoError(t, d.Stop())
	pins[0].L = gpio.High
	require.Equal(t, byte(0x81), d.Read())
	require.Zero(t, d.ClearInterrupt())
}

func TestPWM(t *testing.T) {
	pin := newTestPins(1)[0]
	p := NewPWM(pin)
	require.NoError(t, p.WriteCompare(64))
	require.Zero(t, pin.D)
	require.NoError(t, p.Start())
	require.Equal(t, gpio.Duty(int64(gpio.DutyMax)*64/256), pin.D)
	require.Equal(t, DefaultPWMClock/256, pin.F)
	require.NoError(t, p.WritePeriod(99))
	require.Equal(t, DefaultPWMClock/100, pin.F)
	require.Equal(t, uint16(99), p.ReadPeriod())
	require.Equal(t, uint16(64), p.ReadCompare())
	require.NoError(t, p.WriteCompare(200))
	require.Equal(t, gpio.DutyMax, pin.D)
	require.NoError(t, p.WriteCounter(3))
	require.Equal(t, uint16(3), p.ReadCounter())
	require.NoError(t, p.Stop())
	require.Equal(t, gpio.Low, pin.L)
}

func TestADC(t *testing.T) {
	pin := &testAnalogPin{name: "A0", in: analog.Sample{Raw: 1000}}
	a := NewADC(pin, DefaultCountsPerVolt)
	require.False(t, a.IsEndConversion())
	require.Zero(t, a.GetResult32())

	require.NoError(t, a.Start())
	require.True(t, a.IsEndConversion())
	require.Equal(t, int32(1000), a.GetResult32())
	require.Equal(t, int32(500), a.CountsToMillivolts(1000))

	require.NoError(t, a.StopConvert())
	pin.in.Raw = 2000
	require.Equal(t, int32(1000), a.GetResult32())

	require.NoError(t, a.SetOffset(200))
	require.NoError(t, a.SetGain(1000))
	require.Equal(t, int32(800), a.CountsToMillivolts(1000))
	require.True(t, errors.Is(a.SelectConfig(2), ErrInvalidConfig))
	require.NoError(t, a.SelectConfig(1))

	require.NoError(t, a.StartConvert())
	pin.readErr = errors.New("io")
	require.False(t, a.IsEndConversion())
	require.Equal(t, int32(1000), a.GetResult32())
}

func TestDACs(t *testing.T) {
	pin := &testAnalogPin{name: "DAC0"}
	v := NewVDAC(pin)
	require.NoError(t, v.SetValue(255))
	require.Zero(t, pin.count())
	require.NoError(t, v.Start())
	require.Equal(t, 1020*physic.MilliVolt, pin.last().V)
	require.NoError(t, v.SetRange(1))
	require.Equal(t, 4080*physic.MilliVolt, pin.last().V)
	require.True(t, errors.Is(v.SetRange(2), ErrOutOfRange))
	require.True(t, errors.Is(v.SetSpeed(2), ErrOutOfRange))
	require.NoError(t, v.Stop())
	require.Equal(t, analog.Sample{}, pin.last())
	require.Equal(t, byte(255), v.Value())

	pin = &testAnalogPin{name: "DAC1"}
	i := NewIDAC(pin)
	require.NoError(t, i.Start())
	require.NoError(t, i.SetValue(10))
	require.Equal(t, int32(10), pin.last().Raw)
	require.NoError(t, i.SetPolarity(1))
	require.Equal(t, int32(-10), pin.last().Raw)
	require.NoError(t, i.SetRange(2))
}

func TestWaveDAC(t *testing.T) {
	pin := &testAnalogPin{name: "DAC2"}
	w := NewWaveDAC(pin)
	require.Len(t, w.Wave(), wave.DefaultPoints)
	require.NoError(t, w.Step())
	require.Zero(t, pin.count())

	require.NoError(t, w.SetWave(wave.Table{1, 2, 3}))
	require.NoError(t, w.Start())
	for _, v := range []int32{1, 2, 3, 1} {
		require.NoError(t, w.Step())
		require.Equal(t, v, pin.last().Raw)
	}
	require.True(t, errors.Is(w.SetWave(wave.Table{1}), wave.ErrPointsOutOfRange))
	require.True(t, errors.Is(w.SelectWave(2), ErrOutOfRange))
	require.True(t, errors.Is(w.SetClockDivider(0), ErrOutOfRange))
	require.NoError(t, w.SelectWave(1))
	require.Len(t, w.Wave(), wave.DefaultPoints)
	require.NoError(t, w.SetClockDivider(10))
	require.Equal(t, 10*time.Millisecond, w.period())
}

func TestWaveDACRun(t *testing.T) {
	pin := &testAnalogPin{name: "DAC3"}
	w := NewWaveDAC(pin)
	require.NoError(t, w.Start())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	deadline := time.Now().Add(time.Second)
	for pin.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.True(t, pin.count() >= 3)
}

func TestParsePinMap(t *testing.T) {
	pins := newTestPins(4)
	resolve := func(name string) gpio.PinIO {
		for _, p := range pins {
			if p.N == name {
				return p
			}
		}
		return nil
	}
	var p Pins
	require.NoError(t, p.ParsePinMap("PWM_3=GPIOA, DigOut_1.2=GPIOB,DigIn_0.7=GPIOC,", resolve))
	require.Equal(t, pins[0], p.PWMs[3])
	require.Equal(t, pins[1], p.DigOuts[1][2])
	require.Equal(t, pins[2], p.DigIns[0][7])

	for _, bad := range []string{
		"PWM_3",
		"PWM_9=GPIOA",
		"PWM_0=GPIOZ",
		"DigOut_0=GPIOA",
		"DigOut_0.8=GPIOA",
		"VDAC8_0=GPIOA",
	} {
		require.Error(t, p.ParsePinMap(bad, resolve), bad)
	}
}

func TestNewBoard(t *testing.T) {
	_, err := NewBoard(&Pins{}, nil)
	require.True(t, errors.Is(err, periph.ErrMissingDriver))

	gpios := newTestPins(3)
	analogPin := &testAnalogPin{name: "W"}
	pins := &Pins{}
	pins.PWMs[0] = gpios[0]
	pins.DigOuts[0][0], pins.DigOuts[0][1] = gpios[1], gpios[2]
	pins.WaveDACs[0] = analogPin
	simBoard := sim.NewBoard()
	b, err := NewBoard(pins, simBoard.Collection())
	require.NoError(t, err)

	d, err := dispatch.New(b.Collection())
	require.NoError(t, err)
	for _, req := range []periph.Request{
		{Address: periph.AddrDigOut0, Command: dispatch.CmdStart},
		{Address: periph.AddrDigOut0, Command: dispatch.DigOutWrite, Data: 0x03},
		{Address: periph.AddrPWM0, Command: dispatch.CmdStart},
		{Address: periph.AddrPWM0 + 1, Command: dispatch.CmdStart},
	} {
		_, err := d.Dispatch(req)
		require.NoError(t, err, req.String())
	}
	require.Equal(t, gpio.High, gpios[1].L)
	require.Equal(t, gpio.High, gpios[2].L)
	require.NotZero(t, gpios[0].D)
	require.Equal(t, sim.StateActive, simBoard.PWMs[1].State())
	require.Equal(t, sim.StateDisabled, simBoard.PWMs[0].State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.Run(ctx))
}
