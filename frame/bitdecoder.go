package frame

// decodeByte reconstructs one data byte from a committed edge-interval
// buffer via time-weighted majority sampling, per the algorithm in
// spec section 4.3. edges holds the sample-tick intervals between
// consecutive transitions starting at the byte's start bit (the line is
// low for the first interval); bit windows past the last interval take
// the level the line was left at.
//
// Majority sampling is robust to edge jitter of up to ±BIT_TOL ticks per
// bit and tolerates a missing edge within a bit window: when no
// transition falls inside a window, the level simply persists and
// hiCount accumulates (or doesn't) across the whole window.
func decodeByte(edges []uint8, order BitOrder) byte {
	var bits [8]bool
	nBits := 0

	t := 0
	tBit := OneBit
	isHi := false
	hiCount := 0

	for _, interval := range edges {
		if nBits >= 8 {
			break
		}
		remaining := int(interval)
		for remaining > 0 && nBits < 8 {
			toBoundary := tBit - t
			step := remaining
			if step > toBoundary {
				step = toBoundary
			}
			if isHi {
				hiCount += step
			}
			t += step
			remaining -= step

			if t == tBit {
				if tBit != OneBit && tBit < TenBits {
					bits[nBits] = hiCount > HalfBit
					nBits++
				}
				tBit += OneBit
				hiCount = 0
			}
		}
		isHi = !isHi
	}

	// The edge that ends the byte (the next start bit's falling edge) is
	// not in the buffer: the line holds its level after the last buffered
	// edge until then, so the remaining bit windows take that level.
	for nBits < 8 {
		if isHi {
			hiCount += tBit - t
		}
		t = tBit
		if tBit != OneBit && tBit < TenBits {
			bits[nBits] = hiCount > HalfBit
			nBits++
		}
		tBit += OneBit
		hiCount = 0
	}

	return assembleByte(bits, order)
}

func assembleByte(bits [8]bool, order BitOrder) byte {
	var b byte
	for i := 0; i < 8; i++ {
		var v byte
		if bits[i] {
			v = 1
		}
		if order == MSBFirst {
			b |= v << uint(7-i)
		} else {
			b |= v << uint(i)
		}
	}
	return b
}

// BitDecoder is the deferred-ISR counterpart of RxStateMachine: it owns
// the non-active edge buffer and turns it into a byte once RxStateMachine
// raises a byte-boundary commit. In this Go port the "interrupt
// priority" relationship (decoder must never block edge capture) is
// modeled by running the decoder on its own goroutine so the capture
// goroutine is never blocked waiting on it.
type BitDecoder struct {
	rx   *RxStateMachine
	sink ByteSink
	cfg  Config
}

// NewBitDecoder builds a decoder bound to rx's edge buffers.
func NewBitDecoder(cfg Config, rx *RxStateMachine, sink ByteSink) *BitDecoder {
	return &BitDecoder{rx: rx, sink: sink, cfg: cfg}
}

// DecodeCommit decodes the edge buffer at bufIdx (the buffer RxStateMachine
// just finished writing and handed off) and delivers the result upward.
func (d *BitDecoder) DecodeCommit(bufIdx int) {
	edges, n := d.rx.PendingBytes(bufIdx)
	b := decodeByte(edges[:n], d.cfg.BitOrder)
	d.rx.SetLastByte(b)
	d.sink.RxByte(DataByte(b))
}

// Run drains commit notifications from rx until stop is closed, decoding
// each one as it arrives. It is meant to be run in its own goroutine.
func (d *BitDecoder) Run(commits <-chan int, stop <-chan struct{}) {
	for {
		select {
		case bufIdx := <-commits:
			d.DecodeCommit(bufIdx)
		case <-stop:
			return
		}
	}
}
