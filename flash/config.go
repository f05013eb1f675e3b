package flash

import "time"

var DefaultBaud = 19200
var DefaultTTY = "/dev/ttyUSB0"

// DefaultSettleDelay is how long the ESC is given to process a frame before
// its input is polled
var DefaultSettleDelay = 25 * time.Millisecond

var DefaultResetRetries = 5

// NoRetries in Config.ResetRetries disables handshake retries
const NoRetries = -1
var DefaultSendAttempts = 8

// AckPollAttempts bounds how many times the link is polled for an ack
const AckPollAttempts = 50

// FlashStartAddress is where application firmware begins on every family
const FlashStartAddress = 4096

// ChunkSize is the largest payload sent in one write cycle
const ChunkSize = 128

// Config defines configuration for communicating with and flashing the ESC
type Config struct {
	TTY      string
	BaudRate int

	// SettleDelay is slept after each write and before every ack poll.
	SettleDelay time.Duration

	// ResetRetries is how many times the init sequence is resent after the
	// first attempt goes unacknowledged. 0 selects DefaultResetRetries, use
	// NoRetries to send it only once.
	ResetRetries int

	// SendAttempts is how many times a single chunk is tried before the
	// transfer is abandoned. 0 selects DefaultSendAttempts.
	SendAttempts int

	// PowerGPIO, when set, is a pin switching the ESC supply. It is cycled
	// before the link is opened.
	PowerGPIO int
}

// Port will return the TTY that will be used
func (c *Config) Port() string {
	if c.TTY != "" {
		return c.TTY
	}
	return DefaultTTY
}

// Baud will return the baud rate used to connect to the TTY
func (c *Config) Baud() int {
	if c.BaudRate > 0 {
		return c.BaudRate
	}
	return DefaultBaud
}

func (c *Config) settleDelay() time.Duration {
	if c.SettleDelay > 0 {
		return c.SettleDelay
	}
	return DefaultSettleDelay
}

func (c *Config) resetRetries() int {
	switch {
	case c.ResetRetries > 0:
		return c.ResetRetries
	case c.ResetRetries < 0:
		return 0
	}
	return DefaultResetRetries
}

func (c *Config) sendAttempts() int {
	if c.SendAttempts > 0 {
		return c.SendAttempts
	}
	return DefaultSendAttempts
}
