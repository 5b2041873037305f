package frame

// Radio is the downward API this core consumes from the transceiver
// driver (radio_enter_rx / radio_enter_tx / radio_enter_idle /
// radio_read_rssi in the original C). SPI register programming and mode
// switching are entirely the driver's concern; the frame engine only
// ever calls these four operations. See package radio for the real
// collaborator shape and a loopback fake used in tests.
type Radio interface {
	EnterRX() error
	EnterTX() error
	EnterIdle() error
	ReadRSSI() (uint8, error)
}
