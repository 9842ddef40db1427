package controller

import (
	"context"
	"fmt"
	"io"
	"os"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l0/comm"
	"github.com/robotalks/perictl/pkg/led"
	"github.com/robotalks/perictl/pkg/periph"
	"github.com/robotalks/perictl/pkg/periph/periphio"
	"github.com/robotalks/perictl/pkg/periph/sim"
)

// Board is the assembled set of peripheral drivers.
type Board struct {
	Sim      *sim.Board
	Hardware *periphio.Board
}

// OpenBoard creates simulated peripherals and replaces the ones
// assigned in PinMap with host drivers.
func (c *Config) OpenBoard() (*Board, error) {
	b := &Board{Sim: sim.NewBoard()}
	if c.PinMap != "" {
		hw, err := periphio.Open(c.PinMap, b.Sim.Collection())
		if err != nil {
			return nil, fmt.Errorf("open pin map error: %v", err)
		}
		b.Hardware = hw
	}
	return b, nil
}

// Collection gets the drivers.
func (b *Board) Collection() *periph.Collection {
	if b.Hardware != nil {
		return b.Hardware.Collection()
	}
	return b.Sim.Collection()
}

// Run implements Runnable.
func (b *Board) Run(ctx context.Context) error {
	r := fx.NewRunnerWith(ctx).Go(fx.NamedRun("sim", b.Sim))
	if b.Hardware != nil {
		r.Go(fx.NamedRun("hw", b.Hardware))
	}
	err := r.Wait()
	if stopErr := b.Collection().StopAll(); err == nil {
		err = stopErr
	}
	return err
}

type stdio struct {
	io.Reader
	io.Writer
}

// NewLink creates the L0 link runner when Link is set.
func (c *Config) NewLink(d periph.Dispatcher) (fx.Runnable, error) {
	switch c.Link {
	case "":
		return nil, nil
	case "-":
		return comm.NewSlave(&stdio{Reader: os.Stdin, Writer: os.Stdout}, d), nil
	}
	f, err := os.OpenFile(c.Link, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	slave := comm.NewSlave(f, d)
	return &linkRunner{file: f, run: slave.Run}, nil
}

type linkRunner struct {
	file *os.File
	run  func(context.Context) error
}

func (r *linkRunner) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, r.file, func() error {
		return r.run(ctx)
	})
}

// NewLEDLink creates the RGB LED packet runner when LEDLink is set.
// The LED bank is driven through d, the dispatcher shared with other links.
func (c *Config) NewLEDLink(d periph.Dispatcher) (fx.Runnable, error) {
	if c.LEDLink == "" {
		return nil, nil
	}
	addr, ok := periph.ParseAddress(c.LEDBank)
	if !ok || addr.Kind() != periph.KindDigitalOut {
		return nil, fmt.Errorf("invalid LED bank %q", c.LEDBank)
	}
	rgb, err := led.NewRGB(d, addr)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(c.LEDLink, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	slave := comm.NewI2CSlave(rgb)
	bus := comm.NewStreamBus(f)
	return &linkRunner{file: f, run: func(ctx context.Context) error {
		return slave.Run(ctx, bus)
	}}, nil
}
