package controller

import (
	"flag"

	"github.com/robotalks/perictl/pkg/l1"
	"github.com/robotalks/perictl/pkg/periph"
)

// Config defines the configurations for the controller.
type Config struct {
	NotifyStats bool
	// PinMap assigns host pins to peripherals, unassigned ones are simulated.
	// e.g. "PWM_0=GPIO18,DigOut_0.0=GPIO5"
	PinMap string
	// Link is the device path serving the L0 link, "-" for stdio.
	Link string
	// LEDLink is the device path serving RGB LED packets.
	LEDLink string
	// LEDBank is the DigitalOut bank driving the RGB LED.
	LEDBank string
}

var defaultConfig = Config{
	NotifyStats: true,
	LEDBank:     "DigOut_1",
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&defaultConfig.NotifyStats, "stats", defaultConfig.NotifyStats, "Send dispatch statistics as events.")
	flag.StringVar(&defaultConfig.PinMap, "hw", defaultConfig.PinMap, "Host pin map, empty to simulate all peripherals.")
	flag.StringVar(&defaultConfig.Link, "link", defaultConfig.Link, "Serve L0 link on device path, - for stdio.")
	flag.StringVar(&defaultConfig.LEDLink, "led-link", defaultConfig.LEDLink, "Serve RGB LED packets on device path.")
	flag.StringVar(&defaultConfig.LEDBank, "led-bank", defaultConfig.LEDBank, "Digital output bank driving the RGB LED.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates a controller using the config.
func (c *Config) NewController(d periph.Dispatcher, reg l1.Registrar) *Controller {
	ctl := NewController(d, reg)
	ctl.NotifyStats = c.NotifyStats
	return ctl
}
