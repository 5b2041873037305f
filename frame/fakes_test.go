package frame

import "sync"

// recordingSink is a frame.ByteSink that records every event in arrival
// order, standing in for the message-decoder layer in tests the same
// way mockGPIODLine stands in for gpiod hardware.
type recordingSink struct {
	mu     sync.Mutex
	events []RxEvent
	rssis  []uint8
}

func (s *recordingSink) RxByte(ev RxEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) RxRSSI(rssi uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rssis = append(s.rssis, rssi)
}

func (s *recordingSink) snapshot() ([]RxEvent, []uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := make([]RxEvent, len(s.events))
	copy(ev, s.events)
	r := make([]uint8, len(s.rssis))
	copy(r, s.rssis)
	return ev, r
}

// dataBytes filters a recorded event stream down to the decoded data
// bytes only, dropping MsgStart/MsgEnd/FrmLostSync sentinels.
func dataBytes(events []RxEvent) []byte {
	var out []byte
	for _, ev := range events {
		if b, ok := ev.Byte(); ok {
			out = append(out, b)
		}
	}
	return out
}

// fifoSource is a minimal frame.MessageSource backed by a FIFO of queued
// message bodies, enough to drive TxStateMachine/Coordinator in tests without
// pulling in package uplink.
type fifoSource struct {
	mu    sync.Mutex
	queue [][]byte
	done  []OutMsg
}

func (s *fifoSource) enqueue(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, body)
}

func (s *fifoSource) TxGet() (OutMsg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	body := s.queue[0]
	s.queue = s.queue[1:]
	cp := make([]byte, len(body))
	copy(cp, body)
	return &cp, true
}

func (s *fifoSource) TxByte(msg OutMsg) (byte, bool) {
	body := msg.(*[]byte)
	if len(*body) == 0 {
		return 0, false
	}
	b := (*body)[0]
	*body = (*body)[1:]
	return b, true
}

func (s *fifoSource) TxDone(msg OutMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = append(s.done, msg)
}

// fakeRadio is a frame.Radio recording every mode entered, used by
// Coordinator tests that don't need package radio's Loopback.
type fakeRadio struct {
	mu    sync.Mutex
	modes []string
	rssi  uint8
}

func (r *fakeRadio) EnterRX() error   { return r.enter("rx") }
func (r *fakeRadio) EnterTX() error   { return r.enter("tx") }
func (r *fakeRadio) EnterIdle() error { return r.enter("idle") }

func (r *fakeRadio) enter(mode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes = append(r.modes, mode)
	return nil
}

func (r *fakeRadio) ReadRSSI() (uint8, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rssi, nil
}

func (r *fakeRadio) lastMode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.modes) == 0 {
		return ""
	}
	return r.modes[len(r.modes)-1]
}

// recordingLine is a frame.LineDriver recording one level per Tick call,
// used to reconstruct the exact bit sequence TxStateMachine emits.
type recordingLine struct {
	levels []bool
}

func (l *recordingLine) Write(level bool) {
	l.levels = append(l.levels, level)
}
