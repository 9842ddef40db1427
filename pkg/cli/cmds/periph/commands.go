// Package periph provides shell commands operating peripherals.
package periph

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/perictl/pkg/cli/sh"
	l0 "github.com/robotalks/perictl/pkg/l0/comm"
	"github.com/robotalks/perictl/pkg/l0/dispatch"
	"github.com/robotalks/perictl/pkg/l1/msgs"
	"github.com/robotalks/perictl/pkg/led"
	"github.com/robotalks/perictl/pkg/periph"
	"github.com/robotalks/perictl/pkg/periph/wave"
)

// ParseAddress accepts a peripheral name or a numeric address.
func ParseAddress(s string) (periph.Address, error) {
	if addr, ok := periph.ParseAddress(s); ok {
		return addr, nil
	}
	val, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid ADDR %q", s)
	}
	return periph.Address(val), nil
}

// ParseCommand accepts a command name of the peripheral or a numeric code.
func ParseCommand(addr periph.Address, s string) (periph.Command, error) {
	if info, ok := dispatch.LookupCommand(addr.Kind(), strings.ToLower(s)); ok {
		return info.Code, nil
	}
	val, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid CMD %q for %s", s, addr)
	}
	return periph.Command(val), nil
}

// ParseData parses a data word, which is 16-bit on the link.
func ParseData(s string) (uint32, error) {
	val, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid DATA %q: %v", s, err)
	}
	return uint32(val), nil
}

// ParseRequest parses ADDR CMD [DATA].
func ParseRequest(args []string) (req periph.Request, err error) {
	if len(args) < 2 {
		return req, fmt.Errorf("ADDR CMD required")
	}
	if req.Address, err = ParseAddress(args[0]); err != nil {
		return
	}
	if req.Command, err = ParseCommand(req.Address, args[1]); err != nil {
		return
	}
	if len(args) > 2 {
		req.Data, err = ParseData(args[2])
	}
	return
}

func parseKind(s string, kind periph.Kind) (periph.Address, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return addr, err
	}
	if addr.Kind() != kind {
		return addr, fmt.Errorf("%s is not %s", addr, kind)
	}
	return addr, nil
}

func do(c *ishell.Context, reqs ...periph.Request) {
	for _, req := range reqs {
		if _, err := sh.DoCommand(c, msgs.NewPeriphRequest(req)); err != nil {
			return
		}
	}
}

var (
	// ListCmd lists peripherals and their commands.
	ListCmd = ishell.Cmd{
		Name:    "periph.list",
		Aliases: []string{"pl"},
		Help:    "[NAME]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			res, err := s.Do(&msgs.PeriphListQuery{})
			if err != nil {
				c.Err(err)
				return
			}
			list, ok := res.(*msgs.PeriphList)
			if !ok || s.OutputJSON {
				s.Print(c, res)
				return
			}
			for _, info := range list.Peripherals {
				if len(c.Args) > 0 && info.Name != c.Args[0] {
					continue
				}
				names := make([]string, len(info.Commands))
				for n, cmd := range info.Commands {
					names[n] = cmd.Name
					if cmd.Returns {
						names[n] += "*"
					}
				}
				c.Printf("0x%02x %-10s %-5s %s\n", info.Address, info.Name, info.Kind, strings.Join(names, " "))
			}
		}),
	}

	// DoCmd sends a raw request.
	DoCmd = ishell.Cmd{
		Name:    "periph.do",
		Aliases: []string{"pd"},
		Help:    "ADDR CMD [DATA]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			req, err := ParseRequest(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			do(c, req)
		}),
	}

	// ADCReadCmd reads an ADC.
	ADCReadCmd = ishell.Cmd{
		Name: "adc.read",
		Help: "ADC [mv]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ADC required"))
				return
			}
			addr, err := parseKind(c.Args[0], periph.KindADC)
			if err != nil {
				c.Err(err)
				return
			}
			cmd := dispatch.CmdRead
			if len(c.Args) > 1 && c.Args[1] == "mv" {
				cmd = dispatch.ADCReadMillivolts
			}
			do(c, periph.Request{Address: addr, Command: cmd})
		}),
	}

	// DACSetCmd starts a VDAC or IDAC and sets the value.
	DACSetCmd = ishell.Cmd{
		Name: "dac.set",
		Help: "DAC VALUE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("DAC VALUE required"))
				return
			}
			addr, err := ParseAddress(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if k := addr.Kind(); k != periph.KindVDAC && k != periph.KindIDAC {
				c.Err(fmt.Errorf("%s is not a DAC", addr))
				return
			}
			val, err := strconv.ParseUint(c.Args[1], 0, 8)
			if err != nil {
				c.Err(fmt.Errorf("invalid VALUE: %v", err))
				return
			}
			do(c,
				periph.Request{Address: addr, Command: dispatch.CmdStart},
				periph.Request{Address: addr, Command: dispatch.DACSetValue, Data: uint32(val)})
		}),
	}

	// PWMSetCmd starts a PWM with period and compare.
	PWMSetCmd = ishell.Cmd{
		Name: "pwm.set",
		Help: "PWM PERIOD COMPARE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 3 {
				c.Err(fmt.Errorf("PWM PERIOD COMPARE required"))
				return
			}
			addr, err := parseKind(c.Args[0], periph.KindPWM)
			if err != nil {
				c.Err(err)
				return
			}
			period, err := ParseData(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			compare, err := ParseData(c.Args[2])
			if err != nil {
				c.Err(err)
				return
			}
			do(c,
				periph.Request{Address: addr, Command: dispatch.PWMWritePeriod, Data: period},
				periph.Request{Address: addr, Command: dispatch.PWMWriteCompare, Data: compare},
				periph.Request{Address: addr, Command: dispatch.CmdStart})
		}),
	}

	// WaveShapeCmd regenerates the wave between Stop and Start.
	WaveShapeCmd = ishell.Cmd{
		Name: "wave.shape",
		Help: "SHAPE(sine|square|triangle|sawtooth) [AMPLITUDE]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("SHAPE required"))
				return
			}
			shape, err := wave.ParseShape(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			var amp uint64
			if len(c.Args) > 1 {
				if amp, err = strconv.ParseUint(c.Args[1], 0, 8); err != nil {
					c.Err(fmt.Errorf("invalid AMPLITUDE: %v", err))
					return
				}
			}
			do(c,
				periph.Request{Address: periph.AddrWaveDAC, Command: dispatch.CmdStop},
				periph.Request{Address: periph.AddrWaveDAC, Command: dispatch.WaveRegenerate, Data: dispatch.WaveData(shape, byte(amp))},
				periph.Request{Address: periph.AddrWaveDAC, Command: dispatch.CmdStart})
		}),
	}

	// DigOutWriteCmd writes a digital output bank.
	DigOutWriteCmd = ishell.Cmd{
		Name: "dout.write",
		Help: "BANK VALUE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("BANK VALUE required"))
				return
			}
			addr, err := parseKind(c.Args[0], periph.KindDigitalOut)
			if err != nil {
				c.Err(err)
				return
			}
			val, err := strconv.ParseUint(c.Args[1], 0, 8)
			if err != nil {
				c.Err(fmt.Errorf("invalid VALUE: %v", err))
				return
			}
			do(c,
				periph.Request{Address: addr, Command: dispatch.CmdStart},
				periph.Request{Address: addr, Command: dispatch.DigOutWrite, Data: uint32(val)})
		}),
	}

	// LinkDoCmd sends a request over the L0 link on a local device.
	LinkDoCmd = ishell.Cmd{
		Name: "link.do",
		Help: "DEVICE ADDR CMD [DATA]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DEVICE required"))
				return
			}
			req, err := ParseRequest(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			f, err := os.OpenFile(c.Args[0], os.O_RDWR, 0)
			if err != nil {
				c.Err(err)
				return
			}
			defer f.Close()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			res, err := l0.NewClient(f).Do(ctx, req)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(sh.FormatMsg(&msgs.PeriphResult{Result: uint32(res)}))
		},
	}
)

// ParseColor accepts a color name or the packet command code.
func ParseColor(s string) (led.Color, error) {
	if c, ok := led.ParseColor(strings.ToLower(s)); ok {
		return c, nil
	}
	val, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return led.Off, fmt.Errorf("invalid COLOR %q", s)
	}
	return led.Color(val), nil
}

// LEDSetCmd sends an RGB LED packet on a local device.
var LEDSetCmd = ishell.Cmd{
	Name: "led.set",
	Help: "DEVICE COLOR(off|red|green|blue)",
	Func: func(c *ishell.Context) {
		if len(c.Args) < 2 {
			c.Err(fmt.Errorf("DEVICE COLOR required"))
			return
		}
		color, err := ParseColor(c.Args[1])
		if err != nil {
			c.Err(err)
			return
		}
		f, err := os.OpenFile(c.Args[0], os.O_RDWR, 0)
		if err != nil {
			c.Err(err)
			return
		}
		defer f.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		status, err := (&l0.PacketClient{ReadWriter: f}).Send(ctx, l0.Packet{Code: byte(color)})
		if err != nil {
			c.Err(fmt.Errorf("status 0x%02x: %v", status, err))
			return
		}
		c.Println("OK")
	},
}

func init() {
	sh.AddCmds(
		&ListCmd,
		&DoCmd,
		&ADCReadCmd,
		&DACSetCmd,
		&PWMSetCmd,
		&WaveShapeCmd,
		&DigOutWriteCmd,
		&LinkDoCmd,
		&LEDSetCmd,
	)
}
