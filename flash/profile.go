package flash

import "fmt"

// Profile identifies one of the MCU families the AM32 bootloader runs on.
type Profile int

const (
	ProfileNone Profile = iota
	ProfileG071
	ProfileF051
	ProfileF303
)

// configBlockSize is the length of the AM32 settings block on every family
const configBlockSize = 48

type profileInfo struct {
	name          string
	signature     byte
	eepromAddress uint16
	pageSize      int
	wordAddressed bool
}

var profiles = map[Profile]profileInfo{
	ProfileG071: {
		name:          "STM32G071",
		signature:     0x2b,
		eepromAddress: 0x7e00,
		pageSize:      2048,
		wordAddressed: true,
	},
	ProfileF051: {
		name:          "STM32F051",
		signature:     0x1f,
		eepromAddress: 0x7c00,
		pageSize:      1024,
	},
	ProfileF303: {
		name:          "STM32F303",
		signature:     0x35,
		eepromAddress: 0xf800,
		pageSize:      2048,
	},
}

// profileForSignature maps the byte reported during the handshake to its
// family, or ProfileNone.
func profileForSignature(sig byte) Profile {
	for _, p := range []Profile{ProfileG071, ProfileF051, ProfileF303} {
		if profiles[p].signature == sig {
			return p
		}
	}
	return ProfileNone
}

func (p Profile) Signature() byte       { return profiles[p].signature }
func (p Profile) EEPROMAddress() uint16 { return profiles[p].eepromAddress }
func (p Profile) PageSize() int         { return profiles[p].pageSize }

// WordAddressed reports whether flash addresses are sent divided by 4.
func (p Profile) WordAddressed() bool { return profiles[p].wordAddressed }

// ConfigSize is the length of the settings block the family stores.
func (p Profile) ConfigSize() int {
	if p == ProfileNone {
		return 0
	}
	return configBlockSize
}

func (p Profile) String() string {
	if info, ok := profiles[p]; ok {
		return fmt.Sprintf("%s (%dKB page)", info.name, info.pageSize/1024)
	}
	return "none"
}
