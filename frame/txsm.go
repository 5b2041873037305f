package frame

import (
	"sync"

	"github.com/charmbracelet/log"
)

// TxState is an element of the transmit frame-sequencing state machine,
// invoked at byte boundaries to drive preamble -> sync -> message ->
// training.
type TxState int

const (
	TxOff TxState = iota
	TxIdle
	TxPreamble
	TxSync
	TxMsg
	TxTrain
	TxDone
)

func (s TxState) String() string {
	switch s {
	case TxOff:
		return "OFF"
	case TxIdle:
		return "IDLE"
	case TxPreamble:
		return "PREAMBLE"
	case TxSync:
		return "SYNC"
	case TxMsg:
		return "MSG"
	case TxTrain:
		return "TRAIN"
	case TxDone:
		return "DONE"
	default:
		return "TxState(?)"
	}
}

const (
	// txStartBit/txStopBit are the bit-counter values (counting down
	// from one tick before the start bit to the stop bit) at which the
	// timer ISR drives the line to the start-bit space and stop-bit
	// mark respectively. A byte takes 10 ticks: 1 start + 8 data + 1
	// stop.
	txStartBit = 10
	txStopBit  = 1
)

// LineDriver is the downward line-drive surface the timer-compare ISR
// writes to (GDO0 in the original hardware). true is mark (high).
type LineDriver interface {
	Write(level bool)
}

// TxStateMachine is the single instance of the TX state entity: the
// outer frame-sequencing state plus the per-tick bit shifter.
type TxStateMachine struct {
	cfg  Config
	src  MessageSource
	line LineDriver
	log  *log.Logger

	mu      sync.Mutex
	state   TxState
	count   int
	byteVal byte
	bit     int
	msg     OutMsg
	hasMsg  bool
}

// NewTxStateMachine builds a TX state machine that pulls message bytes
// from src and drives level transitions on line.
func NewTxStateMachine(cfg Config, src MessageSource, line LineDriver) *TxStateMachine {
	return &TxStateMachine{cfg: cfg, src: src, line: line, log: log.With("component", "txframe"), state: TxOff}
}

// State returns the current outer TX state. Safe for concurrent use.
func (m *TxStateMachine) State() TxState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// HasMessage reports whether a message is currently queued for
// transmission (tx.msg != null).
func (m *TxStateMachine) HasMessage() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasMsg
}

// SetMessage assigns the message FrameCoordinator pulled via msg_tx_get.
func (m *TxStateMachine) SetMessage(msg OutMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msg = msg
	m.hasMsg = true
}

// TakeMessage clears and returns the queued message, for the coordinator
// to hand to msg_tx_done once the frame completes.
func (m *TxStateMachine) TakeMessage() (OutMsg, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msg, m.hasMsg
	m.msg, m.hasMsg = nil, false
	return msg, ok
}

// Enable arms the TX state machine: state goes to IDLE and bit is set to
// 1 so the very first Tick call triggers the IDLE->PREAMBLE transition.
// Equivalent to the TX-start half of frame_tx_enable; the caller
// (FrameCoordinator) is responsible for the radio mode switch and
// disabling RX first.
func (m *TxStateMachine) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = TxIdle
	m.count = 0
	m.bit = 1
}

// Disable resets the TX state entity to OFF. Equivalent to
// frame_tx_disable.
func (m *TxStateMachine) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = TxOff
	m.count = 0
	m.byteVal = 0
	m.bit = 0
	m.msg = nil
	m.hasMsg = false
}

// Tick is the timer-compare ISR, firing once per bit period (38,400 Hz).
// It decrements the bit counter, runs the outer phase transition when a
// byte completes, and drives the line for this tick.
func (m *TxStateMachine) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == TxOff || m.state == TxDone {
		return
	}

	m.bit--
	if m.bit <= 0 {
		m.phaseTransition()
		if m.state == TxDone {
			return
		}
	}

	switch m.bit {
	case txStartBit:
		m.line.Write(false)
	case txStopBit:
		m.line.Write(true)
	default:
		hi := topBit(m.byteVal, m.cfg.BitOrder)
		m.line.Write(hi)
		m.byteVal = shiftOut(m.byteVal, m.cfg.BitOrder)
	}
}

// phaseTransition implements the outer frame-sequence table, called at
// every byte boundary. It decides the next byte (if any) and resets bit
// to txStartBit to begin shifting it out, continuing within the same
// tick that reached bit == 0.
func (m *TxStateMachine) phaseTransition() {
	switch m.state {
	case TxIdle:
		if !m.hasMsg {
			m.state = TxDone
			return
		}
		m.count = 0
		m.state = TxPreamble
		m.nextByte(0xAA)

	case TxPreamble:
		m.count++
		if m.count < 4 {
			m.nextByte(0xAA)
			return
		}
		m.count = 0
		m.state = TxSync
		m.nextByte(0xFF)

	case TxSync:
		m.count++
		if m.count == 1 {
			m.nextByte(0x00)
			return
		}
		m.count = 0
		m.state = TxMsg
		m.pullMsgByte()

	case TxMsg:
		m.pullMsgByte()

	case TxTrain:
		m.count++
		if m.count < 2 {
			m.nextByte(0xAA)
			return
		}
		m.state = TxDone

	default:
		m.state = TxDone
	}
}

// pullMsgByte asks the message layer for the next body byte; a false ok
// marks end-of-message and advances to the training phase.
func (m *TxStateMachine) pullMsgByte() {
	b, ok := m.src.TxByte(m.msg)
	if !ok {
		m.count = 0
		m.state = TxTrain
		m.nextByte(0xAA)
		return
	}
	m.nextByte(b)
}

func (m *TxStateMachine) nextByte(b byte) {
	m.byteVal = b
	m.bit = txStartBit
}

func topBit(b byte, order BitOrder) bool {
	if order == MSBFirst {
		return b&0x80 != 0
	}
	return b&0x01 != 0
}

func shiftOut(b byte, order BitOrder) byte {
	if order == MSBFirst {
		return b << 1
	}
	return b >> 1
}
