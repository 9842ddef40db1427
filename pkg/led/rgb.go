// Package led drives an RGB LED wired to a digital output bank.
package led

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/perictl/pkg/l0/dispatch"
	"github.com/robotalks/perictl/pkg/periph"
)

// Color selects the lit channel.
type Color byte

// Colors, also the command codes of the I2C packet.
const (
	Off Color = iota
	Red
	Green
	Blue
)

var colorNames = [...]string{"off", "red", "green", "blue"}

// String implements fmt.Stringer.
func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", byte(c))
}

// ParseColor parses a color name.
func ParseColor(s string) (Color, bool) {
	for n, name := range colorNames {
		if name == s {
			return Color(n), true
		}
	}
	return Off, false
}

// Output bits of each channel.
const (
	BitRed   byte = 1 << 0
	BitGreen byte = 1 << 1
	BitBlue  byte = 1 << 2

	bitsRGB = BitRed | BitGreen | BitBlue
)

var colorBits = [...]byte{Off: 0, Red: BitRed, Green: BitGreen, Blue: BitBlue}

// ErrUnknownColor indicates the command is not a color.
var ErrUnknownColor = errors.New("unknown color")

// RGB drives the low three bits of a DigitalOut bank, other bits are untouched.
// Colors are sent as requests through the Dispatcher, so the bank is shared
// safely with other links using the same Dispatcher.
type RGB struct {
	Dispatcher periph.Dispatcher
	Bank       periph.Address
}

// NewRGB starts the output bank and turns the LED off.
func NewRGB(d periph.Dispatcher, bank periph.Address) (*RGB, error) {
	if bank.Kind() != periph.KindDigitalOut {
		return nil, fmt.Errorf("%s is not %s", bank, periph.KindDigitalOut)
	}
	l := &RGB{Dispatcher: d, Bank: bank}
	if err := l.do(dispatch.CmdStart, 0); err != nil {
		return nil, err
	}
	if err := l.Set(Off); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *RGB) do(cmd periph.Command, data byte) error {
	_, err := l.Dispatcher.Dispatch(periph.Request{Address: l.Bank, Command: cmd, Data: uint32(data)})
	return err
}

// Set lights a single channel.
// Each request updates its bits atomically.
func (l *RGB) Set(c Color) error {
	if int(c) >= len(colorBits) {
		return fmt.Errorf("%w %d", ErrUnknownColor, byte(c))
	}
	bit := colorBits[c]
	glog.V(4).Infof("led %s: 0x%02x", c, bit)
	if err := l.do(dispatch.DigOutClearBits, bitsRGB&^bit); err != nil {
		return err
	}
	if bit == 0 {
		return nil
	}
	return l.do(dispatch.DigOutSetBits, bit)
}

// Color reads back the lit channel.
func (l *RGB) Color() Color {
	res, err := l.Dispatcher.Dispatch(periph.Request{Address: l.Bank, Command: dispatch.CmdRead})
	if err != nil {
		return Off
	}
	switch byte(res) & bitsRGB {
	case BitRed:
		return Red
	case BitGreen:
		return Green
	case BitBlue:
		return Blue
	}
	return Off
}

// HandleCommand implements comm.CommandHandler.
func (l *RGB) HandleCommand(cmd byte) error {
	return l.Set(Color(cmd))
}
