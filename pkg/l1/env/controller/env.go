// Package controller sets up the L1 environment of a peripheral controller.
package controller

import (
	"flag"
	"fmt"
	"log"
	"os"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l1"
	"github.com/robotalks/perictl/pkg/l1/comm"
	"github.com/robotalks/perictl/pkg/l1/comm/mqtt"
	"github.com/robotalks/perictl/pkg/l1/comm/stream"
	"github.com/robotalks/perictl/pkg/l1/comm/websocket"
	"github.com/robotalks/perictl/pkg/l1/env"
)

// Config provides common options to setup an env for controllers.
type Config struct {
	Info l1.ControllerInfo

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// ListenAddr accepts length-prefixed L1 streams over TCP.
	ListenAddr string
	// WebSocketAddr accepts L1 packets over websocket.
	WebSocketAddr string
}

// DefaultType is the default controller type.
const DefaultType = "perictl"

var defaultConfig = Config{
	Info:          l1.ControllerInfo{Ref: l1.ControllerRef{Type: DefaultType}},
	MQTTBrokerURL: "mqtt://localhost:1883/perictl/",
}

func init() {
	if val := os.Getenv("PERICTL_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("PERICTL_TYPE"); val != "" {
		defaultConfig.Info.Ref.Type = val
	}
	if val := os.Getenv("PERICTL_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Controller type")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Controller ID, default is derived from machine ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.StringVar(&defaultConfig.ListenAddr, "listen", defaultConfig.ListenAddr, "Listen address for L1 streams")
	flag.StringVar(&defaultConfig.WebSocketAddr, "ws", defaultConfig.WebSocketAddr, "Listen address for websocket")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// SetMeta should be called in init with basic info about the controller.
func SetMeta(meta l1.ControllerMeta) {
	defaultConfig.Info.Meta = meta
}

// Env is the env for controllers.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
	Hub          *comm.Hub

	runnables []fx.Runnable
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if c.Info.Ref.ID == "" {
		c.Info.Ref.ID = env.MachineID()
	}
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("controller type and id must be specified")
	}
	e := &Env{
		Config:    c,
		Registrar: &comm.RegistrarMux{},
	}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT registrar error: %v", err)
		}
		e.Registrar.Add(reg)
		e.RegistryURLs = append(e.RegistryURLs, c.MQTTBrokerURL)
	}
	if c.ListenAddr != "" || c.WebSocketAddr != "" {
		e.Hub = comm.NewHub()
		e.Registrar.Add(e.Hub)
	}
	if c.ListenAddr != "" {
		ln, err := stream.Listen(c.ListenAddr, e.Hub)
		if err != nil {
			return nil, fmt.Errorf("listen %s error: %v", c.ListenAddr, err)
		}
		e.runnables = append(e.runnables, ln)
	}
	if c.WebSocketAddr != "" {
		e.runnables = append(e.runnables, &websocket.Server{Addr: c.WebSocketAddr, Hub: e.Hub})
	}
	if len(e.Registrar.Registrars) == 0 {
		return nil, fmt.Errorf("at least one of MQTT, listen or websocket is required")
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddToLoop adds controllers/runners to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar)
	loop.AddRunnable(e.runnables...)
	loop.Add(&comm.UnsupportedCommands{})
}
