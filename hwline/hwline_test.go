package hwline

import (
	"errors"
	"testing"
	"time"
)

// fakeLine matches ptt_test.go's mockGPIODLine shape: a plain recorder
// standing in for a gpiod line so OutputLine can be exercised without a
// gpio-sim kernel module.
type fakeLine struct {
	values []int
	closed bool
	failOn error
}

func (f *fakeLine) SetValue(v int) error {
	if f.failOn != nil {
		return f.failOn
	}
	f.values = append(f.values, v)
	return nil
}

func (f *fakeLine) Close() error {
	f.closed = true
	return nil
}

func TestOutputLineWriteLevel(t *testing.T) {
	fl := &fakeLine{}
	o := &OutputLine{line: fl}

	o.Write(true)
	o.Write(false)
	o.Write(true)

	want := []int{1, 0, 1}
	if len(fl.values) != len(want) {
		t.Fatalf("values = %v, want %v", fl.values, want)
	}
	for i, v := range want {
		if fl.values[i] != v {
			t.Fatalf("values[%d] = %d, want %d", i, fl.values[i], v)
		}
	}
}

func TestOutputLineWriteInverted(t *testing.T) {
	fl := &fakeLine{}
	o := &OutputLine{line: fl, invert: true}

	o.Write(true)  // mark, inverted -> low
	o.Write(false) // space, inverted -> high

	want := []int{0, 1}
	if len(fl.values) != len(want) {
		t.Fatalf("values = %v, want %v", fl.values, want)
	}
	for i, v := range want {
		if fl.values[i] != v {
			t.Fatalf("values[%d] = %d, want %d", i, fl.values[i], v)
		}
	}
}

// TestOutputLineWriteIgnoresFailure matches the comment in hwline.go:
// the TX ISR path must never block or panic on a failed GPIO write.
func TestOutputLineWriteIgnoresFailure(t *testing.T) {
	fl := &fakeLine{failOn: errors.New("line gone")}
	o := &OutputLine{line: fl}
	o.Write(true) // must not panic
}

func TestOutputLineClose(t *testing.T) {
	fl := &fakeLine{}
	o := &OutputLine{line: fl}
	if err := o.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fl.closed {
		t.Fatal("expected the underlying line to be closed")
	}
}

func TestInputLineClose(t *testing.T) {
	fl := &fakeLine{}
	i := &InputLine{line: fl}
	if err := i.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fl.closed {
		t.Fatal("expected the underlying line to be closed")
	}
}

func TestClockAtConvertsDurationToTicks(t *testing.T) {
	c := NewClock(16_000_000)
	// 1ms at 16MHz is 16000 ticks.
	if got := c.At(time.Millisecond); got != 16000 {
		t.Fatalf("At(1ms) = %d, want 16000", got)
	}
}

func TestClockAtWrapsAt16Bits(t *testing.T) {
	c := NewClock(16_000_000)
	// 16MHz * (65536/16e6)s = 65536 ticks, which truncates to 0 mod 2^16.
	d := time.Duration(float64(65536) / 16_000_000 * float64(time.Second))
	if got := c.At(d); got != 0 {
		t.Fatalf("At(wrap point) = %d, want 0 (16-bit truncation)", got)
	}
}

func TestBitTickerCallsTickRepeatedly(t *testing.T) {
	calls := make(chan struct{}, 8)
	bt := StartBitTicker(func() {
		select {
		case calls <- struct{}{}:
		default:
		}
	})
	defer bt.Stop()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("expected tick to be called within one second at 38,400 Hz")
	}
}

func TestBitTickerStopHaltsDelivery(t *testing.T) {
	calls := make(chan struct{}, 64)
	bt := StartBitTicker(func() {
		select {
		case calls <- struct{}{}:
		default:
		}
	})
	<-calls // wait for at least one tick
	bt.Stop()

	// Drain whatever is buffered, then confirm no further ticks arrive.
	for len(calls) > 0 {
		<-calls
	}
	select {
	case <-calls:
		t.Fatal("received a tick after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}
