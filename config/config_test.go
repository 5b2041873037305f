package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/heatlink-project/heatlink/frame"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() failed Validate: %v", err)
	}
}

func TestValidateRejectsBadBitOrder(t *testing.T) {
	c := Default()
	c.BitOrder = "middle"
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for an unrecognized bit_order")
	}
}

func TestValidateRejectsZeroFrequency(t *testing.T) {
	c := Default()
	c.CPUFrequencyHz = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for cpu_frequency_hz=0")
	}
}

func TestValidateRejectsEmptyGPIOChip(t *testing.T) {
	c := Default()
	c.GPIOChip = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for an empty gpio_chip")
	}
}

func TestValidateRejectsSameGDOOffsets(t *testing.T) {
	c := Default()
	c.GDO2 = c.GDO0
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error when gdo0_offset and gdo2_offset collide")
	}
}

func TestValidateRejectsEmptySerialDevice(t *testing.T) {
	c := Default()
	c.SerialDevice = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for an empty serial_device")
	}
}

func TestBitOrderValue(t *testing.T) {
	c := Default()
	c.BitOrder = "msb"
	if c.BitOrderValue() != frame.MSBFirst {
		t.Fatalf("BitOrderValue() = %v, want MSBFirst", c.BitOrderValue())
	}
	c.BitOrder = "lsb"
	if c.BitOrderValue() != frame.LSBFirst {
		t.Fatalf("BitOrderValue() = %v, want LSBFirst", c.BitOrderValue())
	}
}

func TestClockShiftDerivation(t *testing.T) {
	c := Default()
	c.CPUFrequencyHz = 16_000_000
	if c.ClockShift() != 2 {
		t.Fatalf("ClockShift() = %d, want 2 at 16 MHz", c.ClockShift())
	}
	c.CPUFrequencyHz = 8_000_000
	if c.ClockShift() != 1 {
		t.Fatalf("ClockShift() = %d, want 1 away from 16 MHz", c.ClockShift())
	}
}

func TestFrameConfigUsesEndSentinelOverride(t *testing.T) {
	c := Default()
	want := byte(0x99)
	c.EndSentinel = &want
	fc := c.FrameConfig()
	if fc.EndSentinel != want {
		t.Fatalf("FrameConfig().EndSentinel = %#x, want %#x", fc.EndSentinel, want)
	}
}

func TestFrameConfigDefaultSentinelMatchesBitOrder(t *testing.T) {
	c := Default()
	c.BitOrder = "msb"
	msb := c.FrameConfig()
	lsbCfg := Default()
	lsbCfg.BitOrder = "lsb"
	lsb := lsbCfg.FrameConfig()
	if msb.EndSentinel == lsb.EndSentinel {
		t.Fatal("expected MSB-first and LSB-first default sentinels to differ")
	}
}

func TestLoadReadsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heatlinkd.yaml")
	const doc = `
gpio_chip: /dev/gpiochip1
gdo0_offset: 5
gdo2_offset: 6
cpu_frequency_hz: 16000000
bit_order: lsb
serial_device: /dev/ttyUSB1
serial_baud: 19200
log_level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GPIOChip != "/dev/gpiochip1" || cfg.GDO0 != 5 || cfg.GDO2 != 6 {
		t.Fatalf("Load() = %+v, GPIO fields not applied from the document", cfg)
	}
	if cfg.BitOrder != "lsb" || cfg.SerialDevice != "/dev/ttyUSB1" {
		t.Fatalf("Load() = %+v, not matching the document", cfg)
	}
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heatlinkd.yaml")
	const doc = `
serial_device: /dev/ttyACM0
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if cfg.GPIOChip != want.GPIOChip || cfg.GDO0 != want.GDO0 || cfg.GDO2 != want.GDO2 {
		t.Fatalf("Load() = %+v, want defaults preserved for omitted fields", cfg)
	}
	if cfg.SerialDevice != "/dev/ttyACM0" {
		t.Fatalf("SerialDevice = %q, want the overridden value", cfg.SerialDevice)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("expected an error reading a nonexistent file")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("gpio_chip: [unterminated"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error parsing malformed YAML")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invalid.yaml")
	const doc = `
bit_order: nonsense
serial_device: /dev/ttyUSB0
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected Load to reject a config with an invalid bit_order")
	}
}
