package flash

import "github.com/pkg/errors"

var (
	// ErrHandshakeFailed is returned when the reset sequence is never
	// acknowledged, or is acknowledged without a known device signature.
	ErrHandshakeFailed = errors.New("esc handshake failed")

	// ErrCommunication is returned when a chunk transfer runs out of attempts.
	ErrCommunication = errors.New("esc communication problem")

	// ErrChecksumMismatch is returned when the CRC of a read response does not
	// match its payload.
	ErrChecksumMismatch = errors.New("esc response crc mismatch")

	// ErrSizeMismatch is returned when a configuration block does not have the
	// length the connected device expects.
	ErrSizeMismatch = errors.New("configuration block size mismatch")

	// ErrNotConnected is returned by any transfer attempted before a
	// successful handshake.
	ErrNotConnected = errors.New("no esc connected")

	ErrNoAck         = errors.New("esc did not ack command")
	ErrUnknownDevice = errors.New("esc signature not recognized")
	ErrImageTooLarge = errors.New("firmware image does not fit the esc address space")
	ErrBadChunk      = errors.New("chunk length cannot be sent in one write cycle")
	ErrClosed        = errors.New("link is closed")
)
