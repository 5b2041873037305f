// Command heatlinkd is the daemon wiring config -> hwline -> frame ->
// uplink together: it opens the GDO0/GDO2 GPIO lines, builds a
// frame.Engine, drives RX from GPIO edge events and TX from a bit
// ticker, and bridges the upward byte stream to a serial KISS-style
// transport. Flag parsing follows cmd/direwolf/main.go's use of pflag.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/heatlink-project/heatlink/config"
	"github.com/heatlink-project/heatlink/diagnostics"
	"github.com/heatlink-project/heatlink/frame"
	"github.com/heatlink-project/heatlink/hwline"
	"github.com/heatlink-project/heatlink/radio"
	"github.com/heatlink-project/heatlink/uplink"
)

func main() {
	configFile := pflag.StringP("config-file", "c", "heatlink.yaml", "Configuration file name.")
	device := pflag.StringP("serial-device", "d", "", "Override the configured upward serial device.")
	logLevel := pflag.StringP("log-level", "L", "", "Override the configured log level (debug/info/warn/error).")
	uartVariant := pflag.BoolP("uart-variant", "u", false, "Force the LSB-first TTL-UART bit order regardless of config.")
	help := pflag.BoolP("help", "h", false, "Display help text.")
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *device != "" {
		cfg.SerialDevice = *device
	}
	if *uartVariant {
		cfg.BitOrder = "lsb"
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	logger := log.With("component", "heatlinkd")

	if err := run(cfg, logger); err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	if discovered := discoverGPIOChip(cfg.GPIOChip, logger); discovered != "" {
		cfg.GPIOChip = discovered
	}
	if discovered := discoverSerialDevice(cfg.SerialDevice, logger); discovered != "" {
		cfg.SerialDevice = discovered
	}

	sink := uplink.NewSerialSink(16)
	source := uplink.NewSerialSource()

	port, err := uplink.OpenSerial(cfg.SerialDevice, cfg.SerialBaud)
	if err != nil {
		return fmt.Errorf("opening upward serial device: %w", err)
	}
	defer port.Close()
	transport := uplink.NewTransport(port, sink, source)
	go transport.RunWriter()
	go func() {
		if err := transport.RunReader(); err != nil {
			logger.Warn("upward serial reader stopped", "err", err)
		}
	}()

	outLine, err := hwline.OpenOutput(cfg.GPIOChip, cfg.GDO0, false)
	if err != nil {
		return fmt.Errorf("opening GDO0 output line: %w", err)
	}
	defer outLine.Close()

	// The real transceiver driver (SPI register programming, mode
	// switching) is out of scope per spec section 1; radio.Loopback
	// stands in until a concrete driver is wired in.
	xcvr := radio.NewLoopback()

	engine := frame.NewEngine(cfg.FrameConfig(), xcvr, source, sink, outLine)

	if cfg.TraceDir != "" {
		tracer, err := diagnostics.Open(cfg.TraceDir, "")
		if err != nil {
			return fmt.Errorf("opening trace directory: %w", err)
		}
		defer tracer.Close()
		sink.Trace = func(f uplink.Frame) { tracer.TraceFrame(f.RSSI, f.Body) }
	}

	// The sample counter runs at the CPU clock through the timer's /8
	// prescaler; Config.ClockShift scales that to 500 kHz sample ticks.
	clk := hwline.NewClock(cfg.CPUFrequencyHz / 8)
	inLine, err := hwline.OpenInput(cfg.GPIOChip, cfg.GDO2, clk, engine.OnEdge)
	if err != nil {
		return fmt.Errorf("opening GDO2 input line: %w", err)
	}
	defer inLine.Close()

	engine.Start()
	defer engine.Stop()
	engine.Coord.EnableRX()

	ticker := hwline.StartBitTicker(engine.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("heatlinkd running",
		"gpio_chip", cfg.GPIOChip, "gdo0", cfg.GDO0, "gdo2", cfg.GDO2,
		"serial_device", cfg.SerialDevice, "bit_order", cfg.BitOrder)

	work := time.NewTicker(time.Millisecond)
	defer work.Stop()

	for {
		select {
		case <-sigCh:
			logger.Info("shutting down")
			return nil
		case <-work.C:
			engine.Work()
		}
	}
}
