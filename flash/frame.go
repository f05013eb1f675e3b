package flash

import (
	"github.com/pkg/errors"
)

const (
	cmdSetAddress    byte = 0xff
	cmdSetBufferSize byte = 0xfe
	cmdWriteFlash    byte = 0x01
	cmdReadFlash     byte = 0x03
)

// initSequence is the reset/init string that forces the ESC into its
// bootloader. Twelve zeros reset the line, the rest is the BLHeli tag.
var initSequence = []byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0x0d, 'B', 'L', 'H', 'e', 'l', 'i', 0xf4, 0x7d,
}

// responseTrailer is the crc (2 bytes) and the ack byte that end every data
// response
const responseTrailer = 3

func buildSetAddress(addr uint16) []byte {
	return appendCRC([]byte{cmdSetAddress, 0x00, byte(addr >> 8), byte(addr)})
}

// buildSetBufferSize announces the length of the next payload. The device
// reads a size byte of 0 as 256.
func buildSetBufferSize(size uint16) []byte {
	return appendCRC([]byte{cmdSetBufferSize, 0x00, 0x00, byte(size)})
}

func buildWriteFlash() []byte {
	return appendCRC([]byte{cmdWriteFlash, 0x01})
}

func buildReadFlash(size uint8) []byte {
	return appendCRC([]byte{cmdReadFlash, size})
}

// appendPayloadCRC frames raw firmware or eeprom data. The caller's slice is
// left untouched.
func appendPayloadCRC(payload []byte) []byte {
	return appendCRC(payload)
}

// validateResponse extracts the n data bytes that precede the crc and ack
// byte at the end of raw and checks them against the transmitted crc.
func validateResponse(raw []byte, n int) ([]byte, error) {
	if len(raw) < n+responseTrailer {
		return nil, errors.Wrapf(ErrChecksumMismatch, "short response: want %d data bytes, got %d total", n, len(raw))
	}

	end := len(raw) - responseTrailer
	data := raw[end-n : end]
	hi, lo := crc16(data)

	if raw[end] != lo || raw[end+1] != hi {
		return nil, errors.Wrapf(ErrChecksumMismatch, "got %02x%02x, computed %02x%02x", raw[end+1], raw[end], hi, lo)
	}

	out := make([]byte, n)
	copy(out, data)
	return out, nil
}
