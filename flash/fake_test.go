package flash

import (
	"bytes"
	"time"
)

// fakeESC simulates an AM32 bootloader on a one wire link: every accepted
// frame is echoed back, followed by the ack byte.
type fakeESC struct {
	signature byte
	silent    bool // never answer anything
	dropAcks  bool // accept nothing

	// nackAddr lists set-address values that are never acked
	nackAddr map[uint16]bool
	// flakyAddr drops the ack for the first n set-address commands
	flakyAddr int
	// corruptReads flips a data bit in read responses
	corruptReads bool

	writes  [][]byte
	addrs   []uint16
	flushes int
	polls   int
	closed  bool

	pending     []byte
	addr        uint16
	wantPayload int
	payload     []byte
	mem         map[uint16][]byte
}

func newFakeESC(sig byte) *fakeESC {
	return &fakeESC{
		signature: sig,
		nackAddr:  map[uint16]bool{},
		mem:       map[uint16][]byte{},
	}
}

func handshakeReply(sig byte) []byte {
	return []byte{0x34, 0x37, 0x31, 0x64, sig, 0x06, 0x06, 0x01, bACK}
}

func (f *fakeESC) Write(bs []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	f.writes = append(f.writes, append([]byte(nil), bs...))
	if f.silent {
		return len(bs), nil
	}

	echo := append([]byte(nil), bs...)
	ack := !f.dropAcks

	switch {
	case f.wantPayload > 0:
		if len(bs) != f.wantPayload+2 {
			ack = false
		}
		f.payload = append([]byte(nil), bs[:len(bs)-2]...)
		f.wantPayload = 0

	case bytes.Equal(bs, initSequence):
		if ack {
			f.pending = append(f.pending, echo...)
			f.pending = append(f.pending, handshakeReply(f.signature)...)
		}
		return len(bs), nil

	case bs[0] == cmdSetAddress:
		f.addr = uint16(bs[2])<<8 | uint16(bs[3])
		f.addrs = append(f.addrs, f.addr)
		if f.nackAddr[f.addr] {
			ack = false
		}
		if f.flakyAddr > 0 {
			f.flakyAddr--
			ack = false
		}

	case bs[0] == cmdSetBufferSize:
		f.wantPayload = int(bs[3])
		if f.wantPayload == 0 {
			f.wantPayload = 256
		}
		ack = false

	case bs[0] == cmdWriteFlash:
		f.mem[f.addr] = f.payload

	case bs[0] == cmdReadFlash:
		data := make([]byte, bs[1])
		copy(data, f.mem[f.addr])
		framed := appendCRC(data)
		if f.corruptReads {
			framed[0] ^= 0x01
		}
		echo = append(echo, framed...)
	}

	// a frame the device rejects produces no reply at all, so a stray crc
	// byte can never be mistaken for an ack
	if ack {
		f.pending = append(f.pending, echo...)
		f.pending = append(f.pending, bACK)
	}

	return len(bs), nil
}

func (f *fakeESC) ReadAvailable() ([]byte, error) {
	if f.closed {
		return nil, ErrClosed
	}
	f.polls++
	bs := f.pending
	f.pending = nil
	return bs, nil
}

func (f *fakeESC) FlushInput() error {
	f.flushes++
	f.pending = nil
	return nil
}

// writesOf returns every frame written that starts with cmd
func (f *fakeESC) writesOf(cmd byte) [][]byte {
	var out [][]byte
	for _, w := range f.writes {
		if len(w) > 0 && w[0] == cmd {
			out = append(out, w)
		}
	}
	return out
}

// sleepRecorder stands in for time.Sleep so tests run instantly
type sleepRecorder struct {
	total time.Duration
	calls int
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.total += d
	r.calls++
}

func newTestSession(link Link, c *Config) (*Session, *sleepRecorder) {
	s := NewSession(link, c)
	rec := &sleepRecorder{}
	s.sleep = rec.sleep
	return s, rec
}
