// Package periphio provides peripheral drivers backed by periph.io pins.
//
// GPIO pins are bound by name from a pin map, e.g.
//
//	PWM_0=GPIO12,DigOut_0.0=GPIO17,DigOut_0.1=GPIO27,DigIn_0.0=GPIO5
//
// Analog pins have no registry and are assigned programmatically.
// Peripherals without pins are taken from a fallback collection.
package periphio

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/periph"
)

// Pins assigns periph.io pins to peripherals.
type Pins struct {
	ADCs     [periph.NumADC]analog.PinADC
	VDACs    [periph.NumVDAC]analog.PinDAC
	IDACs    [periph.NumIDAC]analog.PinDAC
	WaveDACs [periph.NumWaveDAC]analog.PinDAC
	PWMs     [periph.NumPWM]gpio.PinOut
	DigIns   [periph.NumDigIn][BankWidth]gpio.PinIn
	DigOuts  [periph.NumDigOut][BankWidth]gpio.PinOut
}

// PinResolver finds a GPIO pin by name.
type PinResolver func(name string) gpio.PinIO

// ParsePinMap binds GPIO pins from a comma separated list of
// PERIPH[.BIT]=PIN entries.
func (p *Pins) ParsePinMap(pinMap string, resolve PinResolver) error {
	for _, entry := range strings.Split(pinMap, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("invalid pin map entry %q", entry)
		}
		name, bitStr := kv[0], ""
		if pos := strings.IndexByte(name, '.'); pos >= 0 {
			name, bitStr = name[:pos], name[pos+1:]
		}
		addr, ok := periph.ParseAddress(name)
		if !ok {
			return fmt.Errorf("unknown peripheral %q", name)
		}
		pin := resolve(kv[1])
		if pin == nil {
			return fmt.Errorf("unknown pin %q", kv[1])
		}
		i := addr.Index()
		switch addr.Kind() {
		case periph.KindPWM:
			p.PWMs[i] = pin
		case periph.KindDigitalIn, periph.KindDigitalOut:
			bit, err := strconv.Atoi(bitStr)
			if err != nil || bit < 0 || bit >= BankWidth {
				return fmt.Errorf("invalid bit in %q", entry)
			}
			if addr.Kind() == periph.KindDigitalIn {
				p.DigIns[i][bit] = pin
			} else {
				p.DigOuts[i][bit] = pin
			}
		default:
			return fmt.Errorf("%s is not a GPIO peripheral", addr)
		}
	}
	return nil
}

// Board is the set of drivers built from Pins.
type Board struct {
	collection periph.Collection
	waves      []*WaveDAC
}

// NewBoard creates drivers for assigned pins and takes the rest from fallback.
func NewBoard(pins *Pins, fallback *periph.Collection) (*Board, error) {
	b := &Board{}
	if fallback != nil {
		b.collection = *fallback
	}
	c := &b.collection
	for i, pin := range pins.ADCs {
		if pin != nil {
			c.ADCs[i] = NewADC(pin, DefaultCountsPerVolt)
		}
	}
	for i, pin := range pins.VDACs {
		if pin != nil {
			c.VDACs[i] = NewVDAC(pin)
		}
	}
	for i, pin := range pins.IDACs {
		if pin != nil {
			c.IDACs[i] = NewIDAC(pin)
		}
	}
	for i, pin := range pins.WaveDACs {
		if pin != nil {
			w := NewWaveDAC(pin)
			c.WaveDACs[i] = w
			b.waves = append(b.waves, w)
		}
	}
	for i, pin := range pins.PWMs {
		if pin != nil {
			c.PWMs[i] = NewPWM(pin)
		}
	}
	for i, bank := range pins.DigIns {
		if !isEmptyIn(bank) {
			c.DigIns[i] = &DigitalIn{Pins: bank, Pull: gpio.Float}
		}
	}
	for i, bank := range pins.DigOuts {
		if !isEmptyOut(bank) {
			c.DigOuts[i] = &DigitalOut{Pins: bank}
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// DefaultCountsPerVolt is the initial gain of ADCs, for 12-bit samples on a 2.048V reference.
const DefaultCountsPerVolt = 2000

// Open initializes the host drivers and creates a Board from a pin map.
func Open(pinMap string, fallback *periph.Collection) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	var pins Pins
	if err := pins.ParsePinMap(pinMap, gpioreg.ByName); err != nil {
		return nil, err
	}
	return NewBoard(&pins, fallback)
}

// Collection gets the drivers.
func (b *Board) Collection() *periph.Collection {
	return &b.collection
}

// Run implements Runnable. It clocks samples of WaveDACs.
func (b *Board) Run(ctx context.Context) error {
	if len(b.waves) == 0 {
		<-ctx.Done()
		return nil
	}
	r := fx.NewRunnerWith(ctx)
	for n, w := range b.waves {
		r.Go(fx.NamedRun(fmt.Sprintf("wave%d", n), w))
	}
	return r.Wait()
}

func isEmptyIn(bank [BankWidth]gpio.PinIn) bool {
	for _, p := range bank {
		if p != nil {
			return false
		}
	}
	return true
}

func isEmptyOut(bank [BankWidth]gpio.PinOut) bool {
	for _, p := range bank {
		if p != nil {
			return false
		}
	}
	return true
}
