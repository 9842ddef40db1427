// Package connector sets up connections from tools to peripheral controllers.
package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/perictl/pkg/l1"
	"github.com/robotalks/perictl/pkg/l1/comm/mqtt"
	"github.com/robotalks/perictl/pkg/l1/comm/stream"
	"github.com/robotalks/perictl/pkg/l1/comm/websocket"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref l1.ControllerRef

	// RegistryURL specifies the URL of controller registry.
	// e.g. mqtt://host:port/topic-prefix
	// Direct connections use tcp://host:port or ws://host:port/ws,
	// where Ref is not needed.
	RegistryURL string
}

var defaultConfig = Config{
	RegistryURL: "mqtt://localhost:1883/perictl/",
}

func init() {
	if val := os.Getenv("PERICTL_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("PERICTL_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("PERICTL_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "ctl-type", defaultConfig.Ref.Type, "Controller type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "ctl-id", defaultConfig.Ref.ID, "Controller ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "registry", defaultConfig.RegistryURL, "Controller registry URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// IsDirect indicates RegistryURL connects to a controller without registry.
func (c *Config) IsDirect() bool {
	u, err := url.Parse(c.RegistryURL)
	return err == nil && (u.Scheme == "tcp" || u.Scheme == "ws" || u.Scheme == "wss")
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "ssl", "tls":
		return mqtt.NewConnector(c.RegistryURL)
	case "tcp", "ws", "wss":
		return &directConnector{url: parsedURL}, nil
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to the controller.
func (c *Config) Connect(ctx context.Context) (l1.ControllerConn, error) {
	if !c.IsDirect() && !c.Ref.IsValid() {
		return nil, fmt.Errorf("controller type and id must be specified")
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, c.Ref)
}

// MustConnect connects to the controller or fails.
func (c *Config) MustConnect() l1.ControllerConn {
	conn, err := c.Connect(context.Background())
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// directConnector connects to a single controller by address.
type directConnector struct {
	url *url.URL
}

func (c *directConnector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	return []l1.ControllerInfo{{Ref: l1.ControllerRef{Type: c.url.Scheme, ID: c.url.Host}}}, nil
}

func (c *directConnector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	if c.url.Scheme == "tcp" {
		return stream.Dial(c.url.Host)
	}
	origin := "http://" + c.url.Host
	if c.url.Scheme == "wss" {
		origin = "https://" + c.url.Host
	}
	u := *c.url
	if u.Path == "" {
		u.Path = websocket.DefaultPath
	}
	return websocket.Dial(u.String(), origin)
}
