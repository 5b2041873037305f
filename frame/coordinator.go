package frame

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Coordinator is the cooperative foreground routine (frame_work in the
// original C): it arbitrates RX/TX transitions, pulls outbound
// messages from the upward layer, reports completed RX frames (with
// RSSI), and arms the radio mode. RX and TX never run concurrently;
// half-duplex is enforced entirely here, per spec section 4.5.
type Coordinator struct {
	rx      *RxStateMachine
	tx      *TxStateMachine
	capture *EdgeCapture
	radio   Radio
	src     MessageSource
	sink    ByteSink
	log     *log.Logger

	mu       sync.Mutex
	rxWanted bool
}

// NewCoordinator builds a coordinator over an already-wired RX/TX
// pipeline. capture is reset every time RX is (re-)armed so EdgeCapture
// starts each frame with a clean clock reference.
func NewCoordinator(rx *RxStateMachine, tx *TxStateMachine, capture *EdgeCapture, radio Radio, src MessageSource, sink ByteSink) *Coordinator {
	return &Coordinator{
		rx:      rx,
		tx:      tx,
		capture: capture,
		radio:   radio,
		src:     src,
		sink:    sink,
		log:     log.With("component", "coordinator"),
	}
}

// EnableRX marks RX as wanted; Work arms it on the next iteration (and
// re-arms it after every completed frame). Equivalent to frame_rx_enable
// at the host-policy level.
func (c *Coordinator) EnableRX() {
	c.mu.Lock()
	c.rxWanted = true
	c.mu.Unlock()
}

// DisableRX marks RX as not wanted and tears it down immediately.
// Equivalent to frame_rx_disable.
func (c *Coordinator) DisableRX() {
	c.mu.Lock()
	c.rxWanted = false
	c.mu.Unlock()

	c.rx.Disable()
	if err := c.radio.EnterIdle(); err != nil {
		c.log.Warn("radio enter idle failed", "err", err)
	}
}

func (c *Coordinator) wantsRX() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rxWanted
}

// Work runs one iteration of the cooperative foreground loop. The
// caller (normally Engine.Work, driven from a main loop or a ticker)
// invokes this repeatedly; Work never blocks.
func (c *Coordinator) Work() {
	if c.rx.State() == Done {
		c.finishRX()
		c.armRX()
	}
	if c.rx.State() == Off && c.wantsRX() {
		c.armRX()
	}

	if !c.tx.HasMessage() {
		if msg, ok := c.src.TxGet(); ok {
			c.tx.SetMessage(msg)
		}
	}

	if c.tx.HasMessage() {
		switch c.tx.State() {
		case TxOff:
			c.startTX()
		case TxDone:
			c.finishTX()
		}
	}
}

// armRX resets the capture clock reference and enables RX, per
// invariant 5 ("time0 is advanced on every synchronized edge"): a fresh
// arm must not carry over a stale clock snapshot from the previous
// frame or from TX.
func (c *Coordinator) armRX() {
	c.capture.Reset()
	c.rx.Enable()
	if err := c.radio.EnterRX(); err != nil {
		c.log.Warn("radio enter rx failed", "err", err)
	}
}

// finishRX implements the DONE-state handling: read RSSI, report it,
// then emit MSG_END. This runs before MsgEnd is delivered regardless of
// which of the four termination paths produced DONE (clean sentinel,
// overlong stop, byte-sync loss, or unexpected rising edge).
func (c *Coordinator) finishRX() {
	rssi, err := c.radio.ReadRSSI()
	if err != nil {
		c.log.Warn("radio read rssi failed", "err", err)
	}
	c.sink.RxRSSI(rssi)
	c.sink.RxByte(MsgEnd)
}

// startTX implements "tx.msg != null and tx.state == OFF": disable RX,
// put the radio in TX mode, arm the TX state machine.
func (c *Coordinator) startTX() {
	c.rx.Disable()
	if err := c.radio.EnterTX(); err != nil {
		c.log.Warn("radio enter tx failed", "err", err)
	}
	c.tx.Enable()
}

// finishTX implements "tx.msg != null and tx.state == DONE": take the
// message, disable TX and idle the radio, then release the message
// upward exactly once and re-arm RX if it's still wanted. The message
// must be taken before Disable, which clears it.
func (c *Coordinator) finishTX() {
	msg, ok := c.tx.TakeMessage()
	c.tx.Disable()
	if err := c.radio.EnterIdle(); err != nil {
		c.log.Warn("radio enter idle failed", "err", err)
	}
	if ok {
		c.src.TxDone(msg)
	}
	if c.wantsRX() {
		c.armRX()
	}
}
