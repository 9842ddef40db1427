package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/perictl/pkg/periph"
	"github.com/robotalks/perictl/pkg/periph/wave"
)

func TestBoardCollection(t *testing.T) {
	b := NewBoard()
	c := b.Collection()
	require.NoError(t, c.Validate())
	for _, addr := range periph.Addresses() {
		require.NotNil(t, c.Switch(addr), addr.String())
	}
	require.NoError(t, c.StopAll())
	require.Len(t, b.Log.Ops(), periph.AddrCount)
}

func TestADCConversion(t *testing.T) {
	b := NewBoard()
	adc := b.ADCs[0]
	adc.SetInput(1234)

	b.Tick()
	require.False(t, adc.IsEndConversion())
	require.Equal(t, int32(0), adc.GetResult32())

	require.NoError(t, adc.Start())
	require.Equal(t, StateActive, adc.State())
	b.Tick()
	require.True(t, adc.IsEndConversion())
	require.Equal(t, int32(1234), adc.GetResult32())
	require.False(t, adc.IsEndConversion())

	require.NoError(t, adc.Stop())
	adc.SetInput(4321)
	b.Tick()
	require.Equal(t, int32(1234), adc.GetResult32(), "stale value expected")
}

func TestADCClampAndMillivolts(t *testing.T) {
	b := NewBoard()
	sar := b.ADCs[1]
	require.NoError(t, sar.Start())
	sar.SetInput(1 << 20)
	b.Tick()
	require.Equal(t, int32(4095), sar.GetResult32())
	require.Equal(t, int32(1000), sar.CountsToMillivolts(2000))
	require.NoError(t, sar.SetOffset(100))
	require.Equal(t, int32(950), sar.CountsToMillivolts(2000))

	require.True(t, errors.Is(sar.SelectConfig(2), ErrInvalidConfig))
	require.NoError(t, b.ADCs[0].SelectConfig(4))
	require.Equal(t, byte(4), b.ADCs[0].Config.Config)
}

func TestStopIdempotent(t *testing.T) {
	b := NewBoard()
	for _, addr := range periph.Addresses() {
		sw := b.Collection().Switch(addr)
		require.NoError(t, sw.Start())
		require.NoError(t, sw.Stop())
		require.NoError(t, sw.Stop())
		require.Equal(t, StateDisabled, sw.(interface{ State() State }).State(), addr.String())
	}
}

func TestDACs(t *testing.T) {
	b := NewBoard()
	vdac := b.VDACs[0]
	require.NoError(t, vdac.SetValue(255))
	require.Equal(t, 0, vdac.OutputMillivolts())
	require.NoError(t, vdac.Start())
	require.Equal(t, 1020, vdac.OutputMillivolts())
	require.NoError(t, vdac.SetRange(1))
	require.Equal(t, 4080, vdac.OutputMillivolts())
	require.True(t, errors.Is(vdac.SetRange(2), ErrOutOfRange))

	idac := b.IDACs[1]
	require.NoError(t, idac.SetRange(2))
	require.True(t, errors.Is(idac.SetRange(3), ErrOutOfRange))
	require.NoError(t, idac.SetPolarity(1))
	require.NoError(t, idac.SetValue(7))
	require.Equal(t, byte(7), idac.Value())
}

func TestWaveDAC(t *testing.T) {
	b := NewBoard()
	d := b.WaveDACs[0]
	require.Equal(t, byte(0), d.Output())
	require.NoError(t, d.SetWave(wave.Table{1, 2, 3}))
	require.NoError(t, d.SetClockDivider(2))
	require.NoError(t, d.Start())
	require.Equal(t, byte(1), d.Output())
	b.Tick()
	require.Equal(t, byte(1), d.Output())
	b.Tick()
	require.Equal(t, byte(2), d.Output())
	b.Tick()
	b.Tick()
	b.Tick()
	b.Tick()
	require.Equal(t, byte(1), d.Output())

	require.NoError(t, d.SelectWave(1))
	require.Len(t, d.Wave(), wave.DefaultPoints)
	require.True(t, errors.Is(d.SelectWave(2), ErrOutOfRange))
	require.True(t, errors.Is(d.SetWave(wave.Table{1}), ErrOutOfRange))
	require.True(t, errors.Is(d.SetClockDivider(0), ErrOutOfRange))
}

func TestPWM(t *testing.T) {
	b := NewBoard()
	p := b.PWMs[3]
	require.NoError(t, p.WritePeriod(3))
	require.NoError(t, p.WriteCompare(2))
	require.NoError(t, p.WriteCounter(3))
	require.False(t, p.Output())
	require.NoError(t, p.Start())
	var levels []bool
	for i := 0; i < 5; i++ {
		b.Tick()
		levels = append(levels, p.Output())
	}
	require.Equal(t, []bool{false, true, true, false, false}, levels)
	require.NoError(t, p.Stop())
	counter := p.ReadCounter()
	b.Tick()
	require.Equal(t, counter, p.ReadCounter())
}

func TestDigital(t *testing.T) {
	b := NewBoard()
	in := b.DigIns[0]
	require.NoError(t, in.SetInterruptMask(0x0f))
	in.SetPins(0x03)
	require.Equal(t, byte(0x03), in.Read())
	require.Equal(t, byte(0), in.ClearInterrupt())

	require.NoError(t, in.Start())
	in.SetPins(0x00)
	in.SetPins(0x31)
	require.Equal(t, byte(0x01), in.ClearInterrupt())
	require.Equal(t, byte(0), in.ClearInterrupt())

	out := b.DigOuts[1]
	require.NoError(t, out.Write(0x5a))
	require.Equal(t, byte(0x5a), out.Read())
	require.Equal(t, byte(0), out.Pins())
	require.NoError(t, out.Start())
	require.Equal(t, byte(0x5a), out.Pins())
}

func TestBoardRun(t *testing.T) {
	b := NewBoard()
	b.Interval = time.Millisecond
	require.NoError(t, b.ADCs[2].Start())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()
	deadline := time.Now().Add(time.Second)
	for !b.ADCs[2].IsEndConversion() {
		require.True(t, time.Now().Before(deadline), "conversion timeout")
		time.Sleep(time.Millisecond)
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}
