package flash

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// signatureOffset is where, counted from the end, the handshake response
// carries the device signature byte
const signatureOffset = 5

// Session is a live conversation with an AM32 bootloader over a Link.
// Transfers are sequential; only the progress accessors may be called from
// another goroutine while a transfer runs.
type Session struct {
	config *Config
	link   Link
	sleep  func(time.Duration)

	profile Profile

	chunksWritten atomic.Int64
	totalChunks   atomic.Int64
}

// NewSession will create an unconnected session on an already open link
func NewSession(link Link, c *Config) *Session {
	if link == nil {
		panic("link cannot be nil")
	}
	if c == nil {
		c = &Config{}
	}

	return &Session{
		config: c,
		link:   link,
		sleep:  time.Sleep,
	}
}

// Profile returns the identified device family, ProfileNone before a
// successful Connect.
func (s *Session) Profile() Profile {
	return s.profile
}

func (s *Session) IsConnected() bool {
	return s.profile != ProfileNone
}

func (s *Session) write(bs []byte) error {
	if _, err := s.link.Write(bs); err != nil {
		return errors.Wrap(err, "could not write to esc")
	}
	logrus.Debugf("esc tx: %x", bs)
	return nil
}

// Connect will send the reset sequence until the bootloader acks it and then
// identify the device family from the reply. Any previously identified
// profile is cleared first.
func (s *Session) Connect() error {
	s.profile = ProfileNone

	var resp []byte
	retries := s.config.resetRetries()
	for try := 0; ; try++ {
		if err := s.write(initSequence); err != nil {
			return errors.Wrap(ErrHandshakeFailed, err.Error())
		}

		var err error
		resp, err = s.awaitAck()
		if err == nil {
			break
		}
		if !errors.Is(err, ErrNoAck) {
			return errors.Wrap(ErrHandshakeFailed, err.Error())
		}
		if try >= retries {
			return errors.Wrapf(ErrHandshakeFailed, "no ack after %d resets", try+1)
		}

		logrus.Warnf("esc reset not acked, retrying (%d/%d)", try+1, retries)
	}

	if len(resp) < signatureOffset {
		return errors.Wrapf(ErrHandshakeFailed, "%v: reply too short (%x)", ErrUnknownDevice, resp)
	}

	sig := resp[len(resp)-signatureOffset]
	p := profileForSignature(sig)
	if p == ProfileNone {
		return errors.Wrapf(ErrHandshakeFailed, "%v: 0x%02x", ErrUnknownDevice, sig)
	}

	s.profile = p
	logrus.Infof("esc connected: %s, eeprom at 0x%04x", p, p.EEPROMAddress())

	return nil
}

// sendChunk runs one set-address, set-buffer-size, payload, write-flash
// cycle. It does not retry; any failure is returned as is.
func (s *Session) sendChunk(payload []byte, addr uint16, eeprom bool) (int, error) {
	if len(payload) == 0 || len(payload) > 256 {
		return 0, errors.Wrapf(ErrBadChunk, "payload of %d bytes", len(payload))
	}

	delay := s.config.settleDelay()

	if err := s.write(buildSetAddress(addr)); err != nil {
		return 0, err
	}
	if _, err := s.awaitAck(); err != nil {
		return 0, errors.Wrap(err, "set address")
	}

	if err := s.write(buildSetBufferSize(uint16(len(payload)))); err != nil {
		return 0, err
	}
	s.sleep(delay)
	if err := s.link.FlushInput(); err != nil {
		return 0, errors.Wrap(err, "could not flush esc input")
	}

	if err := s.write(appendPayloadCRC(payload)); err != nil {
		return 0, err
	}
	if eeprom {
		s.sleep(2 * delay)
	}
	if _, err := s.awaitAck(); err != nil {
		return 0, errors.Wrap(err, "send buffer")
	}

	if err := s.write(buildWriteFlash()); err != nil {
		return 0, err
	}
	s.sleep(delay)
	if eeprom {
		s.sleep(2 * delay)
	}
	if _, err := s.awaitAck(); err != nil {
		return 0, errors.Wrap(err, "write flash")
	}

	return len(payload), nil
}

// sendChunkWithRetry will try a chunk up to the configured number of
// attempts before giving up on the whole transfer
func (s *Session) sendChunkWithRetry(payload []byte, addr uint16, eeprom bool) error {
	attempts := s.config.sendAttempts()

	var err error
	for i := 1; i <= attempts; i++ {
		var n int
		if n, err = s.sendChunk(payload, addr, eeprom); err == nil && n == len(payload) {
			return nil
		}
		if errors.Is(err, ErrBadChunk) {
			return err
		}
		logrus.Warnf("chunk @ 0x%04x failed (%d/%d): %v", addr, i, attempts, err)
	}

	return errors.Wrapf(ErrCommunication, "chunk @ 0x%04x failed %d times, last: %v", addr, attempts, err)
}

// readChunk will read size bytes at addr and check them against the crc the
// ESC appends
func (s *Session) readChunk(size uint8, addr uint16, eeprom bool) ([]byte, error) {
	delay := s.config.settleDelay()

	if err := s.write(buildSetAddress(addr)); err != nil {
		return nil, err
	}
	if _, err := s.awaitAck(); err != nil {
		return nil, errors.Wrap(err, "set address")
	}

	if err := s.write(buildReadFlash(size)); err != nil {
		return nil, err
	}
	s.sleep(delay)
	if eeprom {
		s.sleep(2 * delay)
	}

	resp, err := s.awaitAck()
	if err != nil {
		return nil, errors.Wrap(err, "read flash")
	}

	return validateResponse(resp, int(size))
}

// flashAddress returns the value sent in set-address for a byte address on
// the connected family
func (s *Session) flashAddress(addr int) int {
	if s.profile.WordAddressed() {
		return addr >> 2
	}
	return addr
}

// WriteFirmware will write the chunks in order starting at
// FlashStartAddress. A chunk that keeps failing aborts the transfer with
// ErrCommunication.
func (s *Session) WriteFirmware(chunks [][]byte) error {
	if !s.IsConnected() {
		return ErrNotConnected
	}

	size := 0
	for i, c := range chunks {
		if len(c) == 0 || len(c) > ChunkSize {
			return errors.Wrapf(ErrBadChunk, "chunk %d has %d bytes, want 1-%d", i, len(c), ChunkSize)
		}
		size += len(c)
	}
	if last := FlashStartAddress + size - 1; len(chunks) > 0 && s.flashAddress(last) > 0xffff {
		return errors.Wrapf(ErrImageTooLarge, "%d bytes", size)
	}

	s.chunksWritten.Store(0)
	s.totalChunks.Store(int64(len(chunks)))

	start := time.Now()
	addr := FlashStartAddress

	for i, c := range chunks {
		if err := s.sendChunkWithRetry(c, uint16(s.flashAddress(addr)), false); err != nil {
			return errors.Wrapf(err, "could not write chunk %d", i)
		}

		addr += len(c)
		n := s.chunksWritten.Add(1)

		logrus.Debugf("%03ds: %04d/%04d", int(time.Since(start).Seconds()), n, len(chunks))
	}

	logrus.Infof("firmware written: %d bytes in %d chunks", size, len(chunks))

	return nil
}

// WriteFirmwareFromFile will load a raw binary and write it to the ESC
func (s *Session) WriteFirmwareFromFile(path string) error {
	img, err := LoadImageFile(path)
	if err != nil {
		return err
	}
	return s.WriteFirmware(img.Chunks())
}

// WriteConfig will write the whole settings block to the ESC eeprom
func (s *Session) WriteConfig(block []byte) error {
	if !s.IsConnected() {
		return ErrNotConnected
	}

	if want := s.profile.ConfigSize(); len(block) != want {
		return errors.Wrapf(ErrSizeMismatch, "%d expected, %d received", want, len(block))
	}

	if err := s.sendChunkWithRetry(block, s.profile.EEPROMAddress(), true); err != nil {
		return errors.Wrap(err, "could not write eeprom")
	}

	logrus.Info("eeprom written successfully")

	return nil
}

// ReadConfig will read the settings block from the ESC eeprom
func (s *Session) ReadConfig() ([]byte, error) {
	if !s.IsConnected() {
		return nil, ErrNotConnected
	}

	bs, err := s.readChunk(uint8(s.profile.ConfigSize()), s.profile.EEPROMAddress(), true)
	if err != nil {
		if errors.Is(err, ErrChecksumMismatch) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrCommunication, "could not read eeprom: %v", err)
	}

	return bs, nil
}

func (s *Session) ChunksWritten() int { return int(s.chunksWritten.Load()) }
func (s *Session) TotalChunks() int   { return int(s.totalChunks.Load()) }

// FlashDonePercentage reports firmware progress as a whole percentage. It is
// safe to call while WriteFirmware runs on another goroutine.
func (s *Session) FlashDonePercentage() int {
	return percent(s.chunksWritten.Load(), s.totalChunks.Load())
}
