package flash

// crc16 computes the bit reflected CRC-16 (poly 0xA001, init 0) the AM32
// bootloader expects and returns the register as its high and low bytes.
func crc16(bs []byte) (hi, lo byte) {
	var crc uint16
	for _, b := range bs {
		for i := 0; i < 8; i++ {
			if (uint16(b)^crc)&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
			b >>= 1
		}
	}
	return byte(crc >> 8), byte(crc)
}

// appendCRC returns a new slice holding bs followed by its crc, low byte
// first. bs is never modified.
func appendCRC(bs []byte) []byte {
	hi, lo := crc16(bs)
	out := make([]byte, len(bs), len(bs)+2)
	copy(out, bs)
	return append(out, lo, hi)
}
