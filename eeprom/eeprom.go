// Package eeprom holds the AM32 settings block as an opaque buffer with a few
// accessors for the header bytes every layout version shares.
package eeprom

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Size is the length of the settings block
const Size = 48

const (
	offStartByte         = 0
	offLayoutVersion     = 1
	offBootloaderVersion = 2
	offFirmwareMajor     = 3
	offFirmwareMinor     = 4
	offName              = 5
	nameLen              = 12
)

var ErrSize = errors.New("settings block has the wrong size")

// Block is a raw settings block as stored on the ESC
type Block []byte

var defaultBlock = [Size]byte{
	// start byte, layout version, bootloader version, firmware 1.35
	0x01, 0x02, 0x01, 0x01, 0x23,
	// name
	'N', 'E', 'O', 'E', 'S', 'C', ' ', 'f', '0', '5', '1', ' ',
	// motor and rc settings
	0x00, 0x00, 0x00, 0x01, 0x01, 0x01, 0x02, 0x18, 0x64, 0x37, 0x0e, 0x00, 0x00, 0x05,
	0x00, 0x80, 0x80, 0x80, 0x32, 0x00, 0x32, 0x00, 0x00, 0x0f, 0x0a, 0x0a, 0x8d, 0x66, 0x06,
	// input mode auto, unused
	0x01, 0x00,
}

// Default returns a fresh copy of the stock settings
func Default() Block {
	b := make(Block, Size)
	copy(b, defaultBlock[:])
	return b
}

// Parse copies bs into a Block after checking its length
func Parse(bs []byte) (Block, error) {
	if len(bs) != Size {
		return nil, errors.Wrapf(ErrSize, "%d expected, %d received", Size, len(bs))
	}
	b := make(Block, Size)
	copy(b, bs)
	return b, nil
}

// Enabled reports whether the start byte lets the firmware boot
func (b Block) Enabled() bool       { return b[offStartByte] == 1 }
func (b Block) LayoutVersion() byte { return b[offLayoutVersion] }

func (b Block) BootloaderVersion() byte { return b[offBootloaderVersion] }

func (b Block) FirmwareVersion() string {
	return fmt.Sprintf("%d.%d", b[offFirmwareMajor], b[offFirmwareMinor])
}

func (b Block) Name() string {
	return strings.TrimRight(string(b[offName:offName+nameLen]), " \x00")
}

// Compatible reports whether o uses the same layout as b, so the bytes of
// one can be read with the meaning of the other
func (b Block) Compatible(o Block) bool {
	return len(b) == len(o) && b.LayoutVersion() == o.LayoutVersion()
}
