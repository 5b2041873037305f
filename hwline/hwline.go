// Package hwline provides the GPIO line abstraction the frame-layer
// core needs for its two pins: GDO2 (input, RX edge capture with
// both-edges detection) and GDO0 (output, TX bit drive), over Linux
// gpiod character-device lines via github.com/warthog618/go-gpiocdev.
// Grounded on doismellburning-samoyed's ptt.go (GPIO line lifecycle:
// request, set, close) and ptt_test.go's mockGPIODLine/gpiodOutputLine
// interface shape, generalized from a single on/off PTT signal to an
// edge-timestamped input line and a level-driven output line.
package hwline

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/heatlink-project/heatlink/frame"
)

// outputLine is the minimal surface OutputLine needs from a gpiod line,
// matching ptt_test.go's mockGPIODLine shape so tests can substitute a
// fake without a gpio-sim kernel module.
type outputLine interface {
	SetValue(v int) error
	Close() error
}

// OutputLine drives GDO0: the frame.LineDriver the TX timer-compare ISR
// writes to. true is mark (high), matching the wire format's idle
// level.
type OutputLine struct {
	line   outputLine
	invert bool
}

// OpenOutput requests offset on chip as an output line, initially low.
func OpenOutput(chip string, offset int, invert bool) (*OutputLine, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("hwline: open output %s:%d: %w", chip, offset, err)
	}
	return &OutputLine{line: line, invert: invert}, nil
}

// Write implements frame.LineDriver.
func (o *OutputLine) Write(level bool) {
	v := 0
	if level != o.invert {
		v = 1
	}
	// The TX timer ISR must never block on a GPIO write failing; log
	// duty belongs to the caller wiring this into the daemon, not here,
	// since this path runs on every bit tick.
	_ = o.line.SetValue(v)
}

// Close releases the underlying gpiod line.
func (o *OutputLine) Close() error {
	return o.line.Close()
}

var _ frame.LineDriver = (*OutputLine)(nil)

// inputLine is the minimal surface InputLine needs from a gpiod line.
type inputLine interface {
	Close() error
}

// EdgeHandler receives one GDO2 transition: a free-running sample-clock
// snapshot (see Clock) and the line level the transition moved to.
type EdgeHandler func(now uint16, level bool)

// InputLine watches GDO2 for both-edges transitions and delivers each
// one, timestamped against clk, to handler. Event delivery runs on
// go-gpiocdev's own goroutine; handler (normally frame.Engine.OnEdge)
// must therefore be safe to call from a goroutine other than the one
// that opened the line, and must not block.
type InputLine struct {
	line inputLine
	clk  *Clock
}

// OpenInput requests offset on chip as an input line with both-edges
// detection, invoking handler on every transition.
func OpenInput(chip string, offset int, clk *Clock, handler EdgeHandler) (*InputLine, error) {
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			handler(clk.At(evt.Timestamp), evt.Type == gpiocdev.LineEventRisingEdge)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("hwline: open input %s:%d: %w", chip, offset, err)
	}
	return &InputLine{line: line, clk: clk}, nil
}

// Close releases the underlying gpiod line.
func (i *InputLine) Close() error {
	return i.line.Close()
}

// Clock models the free-running sample-clock counter EdgeCapture reads
// raw CPU-frequency snapshots from: a 16-bit value that wraps, derived
// here from a monotonic time reference instead of real hardware
// register reads. hzCPU is the counter's tick rate; heatlinkd passes the
// host CPU clock divided by the timer's /8 prescaler (2_000_000 on a
// 16 MHz host), which Config.ClockShift then brings to 500 kHz.
type Clock struct {
	hzCPU uint64
}

// NewClock returns a Clock ticking at hzCPU Hz.
func NewClock(hzCPU uint32) *Clock {
	return &Clock{hzCPU: uint64(hzCPU)}
}

// At converts a monotonic event timestamp (time since an arbitrary
// reference, as delivered by gpiocdev.LineEvent.Timestamp) into the
// truncated 16-bit counter snapshot EdgeCapture.OnEdge expects.
func (c *Clock) At(ts time.Duration) uint16 {
	ticks := uint64(ts) * c.hzCPU / uint64(time.Second)
	return uint16(ticks)
}

// BitTicker drives a frame.Engine's TX timer-compare ISR at the fixed
// 38,400 Hz bit rate (one Tick per frame.OneBit sample ticks), the
// host-side stand-in for the hardware timer-compare interrupt.
type BitTicker struct {
	ticker *time.Ticker
	stop   chan struct{}
}

// bitPeriod is one bit period at 38,400 baud: frame.OneBit ticks of the
// logical 500 kHz sample clock.
const bitPeriod = time.Second / 38400

// StartBitTicker launches a goroutine calling tick() once per bit
// period until Stop is called.
func StartBitTicker(tick func()) *BitTicker {
	bt := &BitTicker{ticker: time.NewTicker(bitPeriod), stop: make(chan struct{})}
	go func() {
		for {
			select {
			case <-bt.ticker.C:
				tick()
			case <-bt.stop:
				return
			}
		}
	}()
	return bt
}

// Stop halts the ticker goroutine.
func (bt *BitTicker) Stop() {
	bt.ticker.Stop()
	close(bt.stop)
}
