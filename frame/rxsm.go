package frame

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// RxState is an element of the receive state machine, walking
// preamble -> sync0 -> sync1 -> stop -> byte-gathering on every edge.
type RxState int

const (
	Off RxState = iota
	Idle
	High
	Low
	Sync1
	Stop
	Frame0
	Frame
	Done
)

func (s RxState) String() string {
	switch s {
	case Off:
		return "OFF"
	case Idle:
		return "IDLE"
	case High:
		return "HIGH"
	case Low:
		return "LOW"
	case Sync1:
		return "SYNC1"
	case Stop:
		return "STOP"
	case Frame0:
		return "FRAME0"
	case Frame:
		return "FRAME"
	case Done:
		return "DONE"
	default:
		return "RxState(?)"
	}
}

// Edge is one measured line transition, as delivered by EdgeCapture.
// Interval is the saturated tick count since the last synchronized edge
// (time0) and drives every state-transition decision, including
// byte-boundary detection. Delta is the saturated tick count since the
// immediately preceding edge regardless of synchronization, and is the
// quantity BitDecoder's majority sampling actually needs: the duration
// the line held its level before this transition. Rising is the line
// level the transition moved to (true = high/mark).
type Edge struct {
	Interval uint8
	Delta    uint8
	Rising   bool
}

// RxStateMachine is the single instance of the RX state entity. It is
// mutated only from the edge-processing pipeline (the Go equivalent of
// "under interrupts disabled or inside the edge ISR"); State() is the
// only method safe to call concurrently from the foreground coordinator.
type RxStateMachine struct {
	cfg  Config
	sink ByteSink
	log  *log.Logger

	mu       sync.Mutex
	state    RxState
	preamble uint8
	nByte    int
	lastByte byte

	edges  [2][MaxEdge]uint8
	nEdges [2]int
	idx    atomic.Uint32 // buffer EdgeCapture is currently writing; decoder reads 1-idx

	hasCommit     bool
	pendingCommit int
}

// NewRxStateMachine constructs an RX state machine that delivers decoded
// bytes and sentinels to sink.
func NewRxStateMachine(cfg Config, sink ByteSink) *RxStateMachine {
	return &RxStateMachine{
		cfg:   cfg,
		sink:  sink,
		log:   log.With("component", "rxframe"),
		state: Off,
	}
}

// State returns the current state. Safe for concurrent use.
func (m *RxStateMachine) State() RxState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Idx returns the edge buffer currently owned by the capture side; the
// decoder owns 1-Idx().
func (m *RxStateMachine) Idx() int {
	return int(m.idx.Load())
}

// Enable resets the RX state entity to IDLE, ready for a fresh preamble
// search. Equivalent to frame_rx_enable.
func (m *RxStateMachine) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Idle
	m.preamble = 0
	m.nByte = 0
	m.lastByte = 0
	m.nEdges[0] = 0
	m.nEdges[1] = 0
	m.idx.Store(0)
}

// Disable zeroes the RX state entity. Equivalent to frame_rx_disable.
func (m *RxStateMachine) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Off
	m.preamble = 0
	m.nByte = 0
	m.lastByte = 0
	m.nEdges[0] = 0
	m.nEdges[1] = 0
	m.hasCommit = false
	m.pendingCommit = 0
	m.idx.Store(0)
}

// PendingBytes returns the edge intervals committed into buffer bufIdx
// and their count, for the decoder to pull after a byte-boundary commit
// raised its deferred interrupt.
func (m *RxStateMachine) PendingBytes(bufIdx int) ([]uint8, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.nEdges[bufIdx]
	return m.edges[bufIdx][:n], n
}

// LastByte reports the most recently decoded byte, the value the
// sentinel check in stepFrame compares.
func (m *RxStateMachine) LastByte() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastByte
}

// SetLastByte records a freshly decoded byte. Called by BitDecoder once
// it reconstructs a byte from a committed edge buffer.
func (m *RxStateMachine) SetLastByte(b byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastByte = b
}

// Step feeds one measured edge into the state machine. It returns synch,
// false when the edge is gathered into the current byte's edge buffer
// (new state Frame, or an edge-buffer overflow) and true otherwise:
// EdgeCapture re-anchors its time0 reference exactly when synch is true,
// so clock recovery happens on every preamble/sync edge but only at byte
// boundaries once inside a frame.
func (m *RxStateMachine) Step(ev Edge) (synch bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case Off:
		return true

	case Idle:
		if ev.Rising {
			m.state = High
		}
		return true

	case High:
		if !ev.Rising {
			m.bumpPreamble(ev.Interval)
			if ev.Interval >= NineBitsMin {
				m.state = Sync1
			} else {
				m.state = Low
			}
		}
		return true

	case Low:
		if ev.Rising {
			m.bumpPreamble(ev.Interval)
			m.state = High
		}
		return true

	case Sync1:
		if ev.Rising {
			if ev.Interval >= NineBitsMin && ev.Interval <= TenBitsMax {
				m.state = Stop
			} else {
				m.state = High
			}
		}
		return true

	case Stop:
		if !ev.Rising {
			m.state = Frame0
			m.nByte = 0
			m.sink.RxByte(MsgStart)
		}
		return true

	case Frame0, Frame:
		return m.stepFrame(ev)

	default:
		return true
	}
}

// bumpPreamble updates the preamble counter: it increments only when the
// interval lies in [MinBit, MaxBit], saturating at 64, and resets to
// zero on any other interval. It is observational only: nothing in this
// state machine gates sync-word acceptance on a minimum count, matching
// devices seen in the field that emit no preamble at all.
func (m *RxStateMachine) bumpPreamble(interval uint8) {
	if interval >= MinBit && interval <= MaxBit {
		if m.preamble < maxPreamble {
			m.preamble++
		}
	} else {
		m.preamble = 0
	}
}

// stepFrame implements the FRAME0/FRAME rows of the transition table:
// byte-boundary detection, frame termination, and edge accumulation.
func (m *RxStateMachine) stepFrame(ev Edge) (synch bool) {
	// A byte fully decoded since the last commit was the end-of-frame
	// sentinel: stop, regardless of this edge.
	if m.state == Frame && m.lastByte == m.cfg.EndSentinel {
		m.toDone(false)
		return true
	}

	if ev.Interval > TenBitsMin {
		if !ev.Rising && ev.Interval < StopBitsMax {
			m.commitByte()
			return true
		}
		if !ev.Rising {
			// Stop bit (mark) ran out past the extended tolerance: a
			// clean, expected end of frame, not a sync error.
			m.toDone(false)
			return true
		}
		// A rising edge this long means the line was low for nearly a
		// full byte period where a start bit was expected: the byte
		// stream has drifted out of sync.
		m.toDone(true)
		return true
	}

	m.appendEdge(ev.Delta)
	return false
}

// commitByte implements rx_byte: publishes the active edge buffer to the
// decoder, flips buffer ownership, and records a pending commit; the
// caller (EdgeCapture) picks it up via TakeCommit and notifies the
// decoder's queue, which stands in for raising the deferred interrupt.
func (m *RxStateMachine) commitByte() {
	m.nByte++
	cur := m.idx.Load()
	m.idx.Store(1 - cur)
	m.nEdges[1-cur] = 0
	m.state = Frame0
	m.pendingCommit = int(cur)
	m.hasCommit = true
}

// appendEdge adds one interval to the active edge buffer, aborting
// gathering with FRM_LOST_SYNC if the buffer is already full.
func (m *RxStateMachine) appendEdge(interval uint8) {
	cur := int(m.idx.Load())
	if m.nEdges[cur] >= MaxEdge {
		m.log.Warn("edge buffer overflow, losing byte sync", "nByte", m.nByte)
		m.toDone(true)
		return
	}
	m.edges[cur][m.nEdges[cur]] = interval
	m.nEdges[cur]++
	m.state = Frame
}

// toDone transitions to DONE. If lostSync, FrmLostSync is reported
// upstream immediately as an in-band pseudo-byte (in addition to the
// MsgEnd the coordinator will emit once it observes the DONE state).
func (m *RxStateMachine) toDone(lostSync bool) {
	m.state = Done
	if lostSync {
		m.sink.RxByte(FrmLostSync)
	}
}

// TakeCommit reports and clears a pending byte-boundary commit, i.e. the
// edge-buffer index the decoder should now process. ok is false if no
// commit is pending.
func (m *RxStateMachine) TakeCommit() (bufIdx int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasCommit {
		return 0, false
	}
	m.hasCommit = false
	return m.pendingCommit, true
}
