// Package config loads the daemon settings and board wiring from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/led-selector/internal/board"
	"github.com/sweeney/led-selector/internal/gpio"
)

const (
	// DefaultConfigFilename is read when no --config path is given.
	DefaultConfigFilename = "/etc/led-selector.yaml"

	// DefaultPoll is the main loop interval.
	DefaultPoll = 2 * time.Millisecond

	// DefaultDebounce is the settle time a press must survive.
	DefaultDebounce = 5 * time.Millisecond

	// DefaultHeartbeat is the MQTT heartbeat interval.
	DefaultHeartbeat = 15 * time.Minute

	// DefaultHTTPAddr is the status page address.
	DefaultHTTPAddr = ":8080"

	// DefaultClientID is the MQTT client identifier.
	DefaultClientID = "led-selector"
)

var (
	errBadPoll     = errors.New("poll interval must be positive")
	errBadDebounce = errors.New("debounce must be positive")
)

// PinConfig is a port/bit pair as written in YAML.
type PinConfig struct {
	Port uint8 `yaml:"port"`
	Bit  uint8 `yaml:"bit"`
}

// Pin converts to a gpio.Pin.
func (p PinConfig) Pin() gpio.Pin {
	return gpio.Pin{Port: gpio.Port(p.Port), Bit: p.Bit}
}

func pinConfig(p gpio.Pin) PinConfig {
	return PinConfig{Port: uint8(p.Port), Bit: p.Bit}
}

// LayoutConfig is the YAML form of board.Layout.
type LayoutConfig struct {
	SelectButton PinConfig `yaml:"select_button"`
	ModeButton   PinConfig `yaml:"mode_button"`
	RedLED       PinConfig `yaml:"red_led"`
	RGBPort      uint8     `yaml:"rgb_port"`
	RGBOffset    uint8     `yaml:"rgb_offset"`
}

// Layout converts to a board.Layout.
func (l LayoutConfig) Layout() board.Layout {
	return board.Layout{
		SelectButton: l.SelectButton.Pin(),
		ModeButton:   l.ModeButton.Pin(),
		RedLED:       l.RedLED.Pin(),
		RGBPort:      gpio.Port(l.RGBPort),
		RGBOffset:    l.RGBOffset,
	}
}

// Config holds all daemon settings.
type Config struct {
	// Poll is the main loop tick interval.
	Poll time.Duration `yaml:"poll"`
	// Debounce is how long a press must hold before it counts.
	Debounce time.Duration `yaml:"debounce"`
	// Heartbeat is the MQTT heartbeat interval; 0 disables it.
	Heartbeat time.Duration `yaml:"heartbeat"`
	// Broker is the MQTT broker URL; empty disables MQTT.
	Broker string `yaml:"broker"`
	// ClientID is the MQTT client identifier.
	ClientID string `yaml:"client_id"`
	// HTTPAddr is the status page listen address; empty disables it.
	HTTPAddr string `yaml:"http"`
	// LogLevel is a zap level name.
	LogLevel string `yaml:"log_level"`
	// Ports places each port on a GPIO chip.
	Ports map[uint8]gpio.PortMapping `yaml:"ports"`
	// Layout assigns board functions to pins.
	Layout LayoutConfig `yaml:"layout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	ports := make(map[uint8]gpio.PortMapping)
	for port, pm := range gpio.DefaultMapping() {
		ports[uint8(port)] = pm
	}
	l := board.DefaultLayout()
	return &Config{
		Poll:      DefaultPoll,
		Debounce:  DefaultDebounce,
		Heartbeat: DefaultHeartbeat,
		ClientID:  DefaultClientID,
		HTTPAddr:  DefaultHTTPAddr,
		LogLevel:  "info",
		Ports:     ports,
		Layout: LayoutConfig{
			SelectButton: pinConfig(l.SelectButton),
			ModeButton:   pinConfig(l.ModeButton),
			RedLED:       pinConfig(l.RedLED),
			RGBPort:      uint8(l.RGBPort),
			RGBOffset:    l.RGBOffset,
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the result.
// A missing file is not an error when allowMissing is set.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return cfg, Validate(cfg)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks durations, the layout and that every used port is mapped.
func Validate(cfg *Config) error {
	if cfg.Poll <= 0 {
		return errBadPoll
	}
	if cfg.Debounce <= 0 {
		return errBadDebounce
	}
	if cfg.Heartbeat < 0 {
		cfg.Heartbeat = 0
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}

	layout := cfg.Layout.Layout()
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	for _, p := range layout.Pins() {
		pm, ok := cfg.Ports[uint8(p.Port)]
		if !ok {
			return fmt.Errorf("pin %s: port %d has no chip mapping", p, p.Port)
		}
		if pm.Chip == "" || pm.Base < 0 {
			return fmt.Errorf("port %d: invalid chip mapping %+v", p.Port, pm)
		}
	}
	return nil
}

// Mapping returns the port mapping for gpio.NewRealIO.
func (c *Config) Mapping() gpio.Mapping {
	m := make(gpio.Mapping, len(c.Ports))
	for port, pm := range c.Ports {
		m[gpio.Port(port)] = pm
	}
	return m
}
