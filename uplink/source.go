package uplink

import (
	"sync"

	"github.com/heatlink-project/heatlink/frame"
)

// outMsg is the concrete type behind frame.OutMsg for this package: a
// plain message body queued for transmission.
type outMsg struct {
	body []byte
}

// SerialSource implements frame.MessageSource: a non-blocking FIFO of
// outbound message bodies, fed by Enqueue (normally called by the
// serial reader as it decodes KISS frames from the host application).
type SerialSource struct {
	mu    sync.Mutex
	queue [][]byte
}

// NewSerialSource returns an empty outbound queue.
func NewSerialSource() *SerialSource {
	return &SerialSource{}
}

// Enqueue queues body for transmission. Safe for concurrent use.
func (s *SerialSource) Enqueue(body []byte) {
	cp := make([]byte, len(body))
	copy(cp, body)
	s.mu.Lock()
	s.queue = append(s.queue, cp)
	s.mu.Unlock()
}

// TxGet implements frame.MessageSource: msg_tx_get, a non-blocking poll.
func (s *SerialSource) TxGet() (msg frame.OutMsg, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	body := s.queue[0]
	s.queue = s.queue[1:]
	return &outMsg{body: body}, true
}

// TxByte implements frame.MessageSource: msg_tx_byte, returning the
// next body byte and false once the body is exhausted.
func (s *SerialSource) TxByte(msg frame.OutMsg) (b byte, ok bool) {
	m, valid := msg.(*outMsg)
	if !valid || len(m.body) == 0 {
		return 0, false
	}
	b = m.body[0]
	m.body = m.body[1:]
	return b, true
}

// TxDone implements frame.MessageSource: msg_tx_done. The message body
// was already consumed by TxByte; nothing further to release since Go's
// GC owns the backing array.
func (s *SerialSource) TxDone(msg frame.OutMsg) {}
