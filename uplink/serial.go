package uplink

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/pkg/term"
)

// Port is the minimal serial-port surface this package needs; *term.Term
// satisfies it directly. Transport takes it as an interface rather than
// serial_port.go's raw fd, so any io.ReadWriteCloser (a pty half, a
// pipe) can stand in for a real device.
type Port interface {
	io.ReadWriteCloser
}

// OpenSerial opens device at baud and puts it in raw mode, generalizing
// serial_port_open for this link's upward KISS transport.
func OpenSerial(device string, baud int) (*term.Term, error) {
	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, err
	}
	if baud != 0 {
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, err
		}
	}
	return t, nil
}

// Transport drives a Port: it writes every completed Frame from a
// SerialSink to the host as a KISS frame, and reads KISS frames from
// the host, decoding them into a SerialSource's outbound queue.
type Transport struct {
	port   Port
	sink   *SerialSink
	source *SerialSource
	log    *log.Logger
}

// NewTransport builds a transport over an already-open port.
func NewTransport(port Port, sink *SerialSink, source *SerialSource) *Transport {
	return &Transport{port: port, sink: sink, source: source, log: log.With("component", "uplink-serial")}
}

// RunWriter drains sink.Frames and writes each one to the port as a
// KISS frame, until the channel is closed.
func (t *Transport) RunWriter() {
	for f := range t.sink.Frames {
		if _, err := t.port.Write(encodeKISS(f.Body)); err != nil {
			t.log.Warn("serial write failed", "err", err)
		}
	}
}

// RunReader reads bytes from the port, reassembles KISS frames, and
// enqueues each decoded body on source for transmission. It returns
// when the port read loop ends (EOF or error).
func (t *Transport) RunReader() error {
	unesc := kissUnescaper{}
	var body []byte
	inFrame := false

	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		for i := 0; i < n; i++ {
			b := buf[i]
			if b == fend {
				if inFrame && len(body) > 0 {
					t.source.Enqueue(body)
				}
				body = body[:0]
				inFrame = true
				unesc = kissUnescaper{}
				continue
			}
			if !inFrame {
				continue
			}
			if out, ok := unesc.feed(b); ok {
				body = append(body, out)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			t.log.Warn("serial read failed", "err", err)
			return err
		}
	}
}
