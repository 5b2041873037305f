package frame

// Engine wires the whole frame-layer core together: EdgeCapture ->
// RxStateMachine -> BitDecoder on the receive side, TxStateMachine on
// the transmit side, and Coordinator arbitrating between them. It is
// the Go equivalent of frame_init/frame_work: construct one Engine per
// radio link, call Start once, then call Work repeatedly from the
// host's cooperative loop (or drive it with a ticker, see cmd/heatlinkd).
type Engine struct {
	Config  Config
	Rx      *RxStateMachine
	Tx      *TxStateMachine
	Capture *EdgeCapture
	Decoder *BitDecoder
	Coord   *Coordinator

	commits chan int
	stop    chan struct{}
}

// NewEngine constructs a fully wired Engine. line drives GDO0 (TX bit
// output); radio is the downward transceiver collaborator; src and sink
// are the upward message-layer collaborators.
func NewEngine(cfg Config, radio Radio, src MessageSource, sink ByteSink, line LineDriver) *Engine {
	rx := NewRxStateMachine(cfg, sink)
	commits := make(chan int, MaxEdge)
	capture := NewEdgeCapture(cfg, rx, commits)
	decoder := NewBitDecoder(cfg, rx, sink)
	tx := NewTxStateMachine(cfg, src, line)
	coord := NewCoordinator(rx, tx, capture, radio, src, sink)

	return &Engine{
		Config:  cfg,
		Rx:      rx,
		Tx:      tx,
		Capture: capture,
		Decoder: decoder,
		Coord:   coord,
		commits: commits,
		stop:    make(chan struct{}),
	}
}

// Start launches the decoder goroutine, the Go-port stand-in for the
// low-priority deferred-interrupt handler. Call it once before feeding
// edges into Capture.
func (e *Engine) Start() {
	go e.Decoder.Run(e.commits, e.stop)
}

// Stop tears down the decoder goroutine. Not safe to call twice.
func (e *Engine) Stop() {
	close(e.stop)
}

// Work runs one iteration of the cooperative foreground loop
// (frame_work).
func (e *Engine) Work() {
	e.Coord.Work()
}

// OnEdge feeds one measured GDO2 transition into the capture pipeline.
// now is a free-running sample-clock snapshot; level is the line level
// the transition moved to.
func (e *Engine) OnEdge(now uint16, level bool) {
	e.Capture.OnEdge(now, level)
}

// OnTimerOverflow feeds one RX sample-clock timer wrap into the capture
// pipeline.
func (e *Engine) OnTimerOverflow() {
	e.Capture.OnOverflow()
}

// Tick drives the TX bit clock (the timer-compare ISR), firing once per
// bit period while TX is active. Calling it while TX is off is a no-op.
func (e *Engine) Tick() {
	e.Tx.Tick()
}
