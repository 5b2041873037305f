// Package config loads and validates the host-side configuration for
// one heatlinkd instance: which GPIO lines drive GDO0/GDO2, the CPU
// clock shift, bit order, end-of-frame sentinel, and the serial device
// for the upward transport. Generalized from the teacher's hand-rolled
// config.go text-file parser (config_init and friends) into a single
// YAML document read with gopkg.in/yaml.v3, matching this repo's
// preference for a real parsing library over hand-rolled line scanning.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/heatlink-project/heatlink/frame"
)

// Config is the on-disk configuration shape.
type Config struct {
	// GPIOChip is the gpiod character-device path, e.g. /dev/gpiochip0.
	GPIOChip string `yaml:"gpio_chip"`
	// GDO0 is the output line offset driving the TX bit line.
	GDO0 int `yaml:"gdo0_offset"`
	// GDO2 is the input line offset for RX edge capture.
	GDO2 int `yaml:"gdo2_offset"`

	// CPUFrequencyHz feeds the clock-shift derivation: 16_000_000
	// yields ClockShift 2, anything else yields ClockShift 1 (spec
	// section 4.1).
	CPUFrequencyHz uint32 `yaml:"cpu_frequency_hz"`

	// BitOrder is "msb" (radio path, default) or "lsb" (UART variant).
	BitOrder string `yaml:"bit_order"`

	// EndSentinel overrides the default end-of-frame sentinel byte for
	// BitOrder. Optional; omitted (nil) means "use the BitOrder default".
	EndSentinel *byte `yaml:"end_sentinel,omitempty"`

	// SerialDevice is the upward KISS-style transport device, e.g.
	// /dev/ttyUSB0.
	SerialDevice string `yaml:"serial_device"`
	// SerialBaud is the upward transport's line speed, 0 to leave the
	// device's current speed alone.
	SerialBaud int `yaml:"serial_baud"`

	// LogLevel is one of debug/info/warn/error, matching
	// charmbracelet/log's level names.
	LogLevel string `yaml:"log_level"`

	// TraceDir enables optional per-frame trace files (RSSI and decoded
	// body bytes) when non-empty; see package diagnostics.
	TraceDir string `yaml:"trace_dir,omitempty"`
}

// Load reads and validates a Config from path.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns a Config with the radio-path (MSB-first) defaults
// and a 16 MHz host clock, matching NewConfig(MSBFirst) in frame.
func Default() Config {
	return Config{
		GPIOChip:       "/dev/gpiochip0",
		GDO0:           23,
		GDO2:           24,
		CPUFrequencyHz: 16_000_000,
		BitOrder:       "msb",
		SerialDevice:   "/dev/ttyUSB0",
		SerialBaud:     9600,
		LogLevel:       "info",
	}
}

// Validate rejects configurations frame.Config or the GPIO layer could
// not use: an unrecognized bit order, a clock frequency that wouldn't
// produce a sane clock shift, or missing device paths.
func (c Config) Validate() error {
	switch c.BitOrder {
	case "msb", "lsb":
	default:
		return fmt.Errorf("bit_order must be \"msb\" or \"lsb\", got %q", c.BitOrder)
	}
	if c.CPUFrequencyHz == 0 {
		return fmt.Errorf("cpu_frequency_hz must be non-zero")
	}
	if c.GPIOChip == "" {
		return fmt.Errorf("gpio_chip must be set")
	}
	if c.GDO0 == c.GDO2 {
		return fmt.Errorf("gdo0_offset and gdo2_offset must differ")
	}
	if c.SerialDevice == "" {
		return fmt.Errorf("serial_device must be set")
	}
	return nil
}

// BitOrderValue returns the frame.BitOrder corresponding to BitOrder.
func (c Config) BitOrderValue() frame.BitOrder {
	if c.BitOrder == "lsb" {
		return frame.LSBFirst
	}
	return frame.MSBFirst
}

// ClockShift derives frame.Config.ClockShift from CPUFrequencyHz: 2 at
// 16 MHz, 1 otherwise, per spec section 4.1. The sample counter runs at
// the CPU clock through the timer's /8 prescaler (2 MHz at 16 MHz, 1 MHz
// at 8 MHz), and the shift brings it to 500 kHz.
func (c Config) ClockShift() uint {
	if c.CPUFrequencyHz == 16_000_000 {
		return 2
	}
	return 1
}

// FrameConfig builds the frame.Config this configuration describes.
func (c Config) FrameConfig() frame.Config {
	fc := frame.NewConfig(c.BitOrderValue())
	fc.ClockShift = c.ClockShift()
	if c.EndSentinel != nil {
		fc.EndSentinel = *c.EndSentinel
	}
	return fc
}
