package dispatch

import (
	"fmt"

	"github.com/robotalks/perictl/pkg/periph"
	"github.com/robotalks/perictl/pkg/periph/wave"
)

// Handler executes a command against one peripheral.
// A command outside the vocabulary returns ErrUnknownCommand
// without touching the driver.
type Handler interface {
	Handle(cmd periph.Command, data uint32) (periph.Result, error)
}

func done(err error) (periph.Result, error) {
	if err != nil {
		return periph.ResultFailure, err
	}
	return periph.ResultNone, nil
}

func value(v uint32) (periph.Result, error) {
	return periph.Result(v), nil
}

// signedValue reports a signed reading. -1 shares its bit pattern with
// periph.ResultFailure, so it is rounded toward zero.
func signedValue(v int32) (periph.Result, error) {
	if v == -1 {
		v = 0
	}
	return periph.Result(uint32(v)), nil
}

func boolValue(b bool) (periph.Result, error) {
	if b {
		return 1, nil
	}
	return 0, nil
}

func unknown() (periph.Result, error) {
	return periph.ResultFailure, ErrUnknownCommand
}

type adcHandler struct {
	dev periph.ADC
}

func (h *adcHandler) Handle(cmd periph.Command, data uint32) (periph.Result, error) {
	switch cmd {
	case CmdStart:
		return done(h.dev.Start())
	case CmdStop:
		return done(h.dev.Stop())
	case ADCStartConvert:
		return done(h.dev.StartConvert())
	case ADCStopConvert:
		return done(h.dev.StopConvert())
	case ADCSelectConfig:
		return done(h.dev.SelectConfig(byte(data)))
	case ADCIsEndConversion:
		return boolValue(h.dev.IsEndConversion())
	case ADCSetOffset:
		return done(h.dev.SetOffset(int32(int16(data))))
	case ADCSetGain:
		return done(h.dev.SetGain(uint16(data)))
	case CmdRead:
		return signedValue(h.dev.GetResult32())
	case ADCReadMillivolts:
		return signedValue(h.dev.CountsToMillivolts(h.dev.GetResult32()))
	}
	return unknown()
}

type vdacHandler struct {
	dev periph.VDAC
}

func (h *vdacHandler) Handle(cmd periph.Command, data uint32) (periph.Result, error) {
	switch cmd {
	case CmdStart:
		return done(h.dev.Start())
	case CmdStop:
		return done(h.dev.Stop())
	case DACSetValue:
		return done(h.dev.SetValue(byte(data)))
	case DACSetRange:
		return done(h.dev.SetRange(byte(data)))
	case VDACSetSpeed:
		return done(h.dev.SetSpeed(byte(data)))
	case CmdRead:
		return value(uint32(h.dev.Value()))
	}
	return unknown()
}

type idacHandler struct {
	dev periph.IDAC
}

func (h *idacHandler) Handle(cmd periph.Command, data uint32) (periph.Result, error) {
	switch cmd {
	case CmdStart:
		return done(h.dev.Start())
	case CmdStop:
		return done(h.dev.Stop())
	case DACSetValue:
		return done(h.dev.SetValue(byte(data)))
	case DACSetRange:
		return done(h.dev.SetRange(byte(data)))
	case IDACSetPolarity:
		return done(h.dev.SetPolarity(byte(data)))
	case CmdRead:
		return value(uint32(h.dev.Value()))
	}
	return unknown()
}

type waveHandler struct {
	dev periph.WaveDAC
}

// WaveParams decodes the data of WaveRegenerate.
// Data wider than the 16-bit link word is rejected.
func WaveParams(data uint32) (wave.Params, error) {
	p := wave.DefaultParams()
	if data > 0xffff {
		return p, fmt.Errorf("%w: %#x", ErrInvalidData, data)
	}
	p.Shape = wave.Shape(data >> 8)
	if amp := byte(data); amp != 0 {
		p.Amplitude = amp
	}
	return p, nil
}

// WaveData encodes WaveRegenerate data.
func WaveData(shape wave.Shape, amplitude byte) uint32 {
	return uint32(shape)<<8 | uint32(amplitude)
}

func (h *waveHandler) Handle(cmd periph.Command, data uint32) (periph.Result, error) {
	switch cmd {
	case CmdStart:
		return done(h.dev.Start())
	case CmdStop:
		return done(h.dev.Stop())
	case WaveRegenerate:
		p, err := WaveParams(data)
		if err != nil {
			return done(err)
		}
		t, err := wave.Synthesize(p)
		if err != nil {
			return done(err)
		}
		return done(h.dev.SetWave(t))
	case WaveSelect:
		return done(h.dev.SelectWave(byte(data)))
	case WaveSetClockDivider:
		return done(h.dev.SetClockDivider(uint16(data)))
	case CmdRead:
		return value(uint32(len(h.dev.Wave())))
	}
	return unknown()
}

type pwmHandler struct {
	dev periph.PWM
}

func (h *pwmHandler) Handle(cmd periph.Command, data uint32) (periph.Result, error) {
	switch cmd {
	case CmdStart:
		return done(h.dev.Start())
	case CmdStop:
		return done(h.dev.Stop())
	case PWMWritePeriod:
		return done(h.dev.WritePeriod(uint16(data)))
	case PWMWriteCompare:
		return done(h.dev.WriteCompare(uint16(data)))
	case PWMWriteCounter:
		return done(h.dev.WriteCounter(uint16(data)))
	case CmdRead:
		return value(uint32(h.dev.ReadCounter()))
	case PWMReadPeriod:
		return value(uint32(h.dev.ReadPeriod()))
	case PWMReadCompare:
		return value(uint32(h.dev.ReadCompare()))
	}
	return unknown()
}

type digInHandler struct {
	dev periph.DigitalIn
}

func (h *digInHandler) Handle(cmd periph.Command, data uint32) (periph.Result, error) {
	switch cmd {
	case CmdStart:
		return done(h.dev.Start())
	case CmdStop:
		return done(h.dev.Stop())
	case DigInSetInterruptMask:
		return done(h.dev.SetInterruptMask(byte(data)))
	case DigInClearInterrupt:
		return value(uint32(h.dev.ClearInterrupt()))
	case CmdRead:
		return value(uint32(h.dev.Read()))
	}
	return unknown()
}

type digOutHandler struct {
	dev periph.DigitalOut
}

func (h *digOutHandler) Handle(cmd periph.Command, data uint32) (periph.Result, error) {
	switch cmd {
	case CmdStart:
		return done(h.dev.Start())
	case CmdStop:
		return done(h.dev.Stop())
	case DigOutWrite:
		return done(h.dev.Write(byte(data)))
	case DigOutSetBits:
		return done(h.dev.Write(h.dev.Read() | byte(data)))
	case DigOutClearBits:
		return done(h.dev.Write(h.dev.Read() &^ byte(data)))
	case CmdRead:
		return value(uint32(h.dev.Read()))
	}
	return unknown()
}
