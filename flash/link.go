package flash

// Link is the byte channel to the ESC bootloader. The Session owns it
// exclusively for its lifetime.
type Link interface {
	// Write transmits bs in full.
	Write(bs []byte) (int, error)

	// ReadAvailable returns whatever input is buffered right now without
	// blocking. An empty slice means nothing has arrived yet.
	ReadAvailable() ([]byte, error)

	// FlushInput discards any buffered input.
	FlushInput() error
}
