package uplink

import (
	"github.com/charmbracelet/log"

	"github.com/heatlink-project/heatlink/frame"
)

// Frame is one fully received message body plus the RSSI sampled at
// frame end. The body never includes the preamble/sync/training bytes
// — only the message bytes RxFrameSM delivered between MSG_START and
// MSG_END, the end-of-frame sentinel byte included.
type Frame struct {
	Body []byte
	RSSI uint8
}

// SerialSink implements frame.ByteSink: it accumulates bytes delivered
// between MsgStart and MsgEnd into a Frame and publishes it on Frames.
// A byte-sync loss (FrmLostSync) discards the in-progress body; no
// partial frame is ever published.
type SerialSink struct {
	Frames chan Frame

	// Trace, if set, is called with every published frame before it is
	// handed to Frames — e.g. to feed package diagnostics — without
	// competing with Frames' own consumer for each value.
	Trace func(Frame)

	log     *log.Logger
	body    []byte
	inFrame bool
	rssi    uint8
}

// NewSerialSink builds a sink with a buffered Frames channel of the
// given capacity.
func NewSerialSink(capacity int) *SerialSink {
	return &SerialSink{
		Frames: make(chan Frame, capacity),
		log:    log.With("component", "uplink"),
	}
}

// RxByte implements frame.ByteSink.
func (s *SerialSink) RxByte(ev frame.RxEvent) {
	switch ev {
	case frame.MsgStart:
		s.inFrame = true
		s.body = s.body[:0]
	case frame.MsgEnd:
		if s.inFrame {
			s.publish()
		}
		s.inFrame = false
	case frame.FrmLostSync:
		s.log.Warn("byte sync lost mid-frame, discarding partial body", "n", len(s.body))
		s.inFrame = false
		s.body = s.body[:0]
	default:
		if b, ok := ev.Byte(); ok && s.inFrame {
			s.body = append(s.body, b)
		}
	}
}

// RxRSSI implements frame.ByteSink.
func (s *SerialSink) RxRSSI(rssi uint8) {
	s.rssi = rssi
}

func (s *SerialSink) publish() {
	body := make([]byte, len(s.body))
	copy(body, s.body)
	f := Frame{Body: body, RSSI: s.rssi}
	if s.Trace != nil {
		s.Trace(f)
	}
	select {
	case s.Frames <- f:
	default:
		s.log.Warn("frame dropped, downstream consumer not keeping up", "n", len(body))
	}
}
