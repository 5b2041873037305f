package frame

// RxEvent is what RxFrameSM/BitDecoder deliver to the upward byte sink.
// Values 0..0xFF are real decoded data bytes; values above that are
// sentinels with no corresponding byte on the wire.
type RxEvent int

const (
	// MsgStart marks the beginning of a frame body, emitted once the
	// stop bit following the sync word has been observed.
	MsgStart RxEvent = 0x100 + iota
	// MsgEnd marks the end of a frame, emitted after the matching
	// msg_rx_rssi call, on any of the four termination paths.
	MsgEnd
	// FrmLostSync reports byte-synchronization loss mid-frame: a rising
	// edge where a falling one was required, or edge-buffer overflow. A
	// stop bit longer than StopBitsMax ends the frame without it.
	FrmLostSync
)

// DataByte wraps a decoded byte as an RxEvent.
func DataByte(b byte) RxEvent { return RxEvent(b) }

// Byte reports the decoded data byte carried by ev, if any.
func (ev RxEvent) Byte() (b byte, ok bool) {
	if ev >= 0 && ev <= 0xFF {
		return byte(ev), true
	}
	return 0, false
}

func (ev RxEvent) String() string {
	if b, ok := ev.Byte(); ok {
		return byteHex(b)
	}
	switch ev {
	case MsgStart:
		return "MSG_START"
	case MsgEnd:
		return "MSG_END"
	case FrmLostSync:
		return "FRM_LOST_SYNC"
	default:
		return "RxEvent(?)"
	}
}

func byteHex(b byte) string {
	const hex = "0123456789ABCDEF"
	return "0x" + string([]byte{hex[b>>4], hex[b&0xF]})
}

// ByteSink is the upward API consumed by this core: the message-decoder
// layer that sits above the frame engine (msg_rx_byte / msg_rx_rssi in
// the original C). Implementations must not block: they are called
// synchronously from the RX pipeline.
type ByteSink interface {
	// RxByte delivers one decoded byte or sentinel, in capture order.
	RxByte(ev RxEvent)
	// RxRSSI is called exactly once before each MsgEnd, carrying the
	// signal strength sampled at frame end.
	RxRSSI(rssi uint8)
}

// OutMsg is an opaque handle to an outbound message, owned by the
// message layer. The frame engine never inspects its contents.
type OutMsg any

// MessageSource is the upward API this core polls for outbound traffic
// (msg_tx_get / msg_tx_byte / msg_tx_done in the original C).
type MessageSource interface {
	// TxGet non-blockingly polls for the next outbound message. ok is
	// false when nothing is queued.
	TxGet() (msg OutMsg, ok bool)
	// TxByte returns the next byte of msg's body. ok is false once the
	// message body is exhausted (end-of-message).
	TxByte(msg OutMsg) (b byte, ok bool)
	// TxDone releases msg after its frame has finished transmitting.
	TxDone(msg OutMsg)
}
