// Package frame implements the bit-level physical/link layer of the
// heating-control radio protocol: preamble detection, byte
// synchronization, bit-level majority sampling, and the two
// interrupt-driven state machines that turn a stream of edge-interval
// measurements into frames (RX) and frames into edges (TX).
package frame

// BitOrder selects which end of the byte the radio path shifts first.
// The radio-frame wire format is MSB-first; a TTL-UART bridge variant of
// the same line protocol shifts LSB-first instead. Both share the same
// state machines and differ only in BitDecoder's shift direction and the
// end-of-frame sentinel byte.
type BitOrder int

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

// Bit-width constants, all derived from a logical 500 kHz sample clock
// against a 38,400 baud line (13 sample ticks per bit period).
const (
	OneBit  = 13 // nominal bit duration, in sample ticks
	HalfBit = 7
	BitTol  = 4

	MinBit = 9
	MaxBit = 17

	NineBits    = 117
	NineBitsMin = 110
	NineBitsMax = 124

	TenBits    = 130
	TenBitsMin = 123
	TenBitsMax = 137

	// StopBitsMax is the extended stop-bit tolerance: 14 bit widths plus
	// half a bit, to accommodate devices observed to emit a longer mark
	// between bytes than the nominal protocol calls for.
	StopBitsMax = 14*OneBit + HalfBit

	// MaxEdge bounds the per-byte edge scratch buffer. A byte with more
	// transitions than this has lost synchronization.
	MaxEdge = 24

	// maxPreamble is the saturation ceiling for the preamble counter.
	maxPreamble = 64
)

// saturate8 clamps v to the 0..255 range.
func saturate8(v int) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

// DefaultRadioSentinel is the end-of-frame sentinel byte on the radio
// path (MSB-first interpretation).
const DefaultRadioSentinel byte = 0xAC

// DefaultUARTSentinel is the end-of-frame sentinel on the TTL-UART
// bridge variant (LSB-first interpretation of the same bit pattern).
const DefaultUARTSentinel byte = 0x35

// Config carries the fixed parameters of one frame-layer instance. A
// single process normally has exactly one, for one radio link.
type Config struct {
	// BitOrder selects MSBFirst (radio path) or LSBFirst (UART variant).
	BitOrder BitOrder

	// EndSentinel is the message-body byte that, once decoded, causes
	// RxFrameSM to end the frame early. Defaults are provided by
	// NewConfig based on BitOrder.
	EndSentinel byte

	// ClockShift is 2 when the host CPU runs at 16 MHz, 1 otherwise, so
	// that the raw free-running counter reads in 500 kHz sample ticks.
	ClockShift uint
}

// NewConfig returns a Config for the given bit order with the matching
// default end-of-frame sentinel and a clock shift of 2 (16 MHz host).
func NewConfig(order BitOrder) Config {
	sentinel := DefaultRadioSentinel
	if order == LSBFirst {
		sentinel = DefaultUARTSentinel
	}
	return Config{
		BitOrder:    order,
		EndSentinel: sentinel,
		ClockShift:  2,
	}
}
