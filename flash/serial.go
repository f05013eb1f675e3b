package flash

import (
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// rxBufferSize comfortably holds the largest response (a 256 byte read plus
// its trailer). Older bytes are dropped beyond it.
const rxBufferSize = 1024

// StreamLink is a Link over any byte stream. A background loop moves incoming
// bytes into a buffer so ReadAvailable never blocks.
type StreamLink struct {
	rw    io.ReadWriteCloser
	reset func() error
	power *powerSwitch

	mu        sync.Mutex
	rx        []byte
	flushedAt time.Time

	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// NewStreamLink wraps an already open stream and starts reading from it.
func NewStreamLink(rw io.ReadWriteCloser) *StreamLink {
	l := &StreamLink{
		rw:   rw,
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go l.rxLoop()
	return l
}

// OpenSerial opens the configured TTY at 8N1. When a power pin is
// configured the ESC is power cycled first.
func OpenSerial(c *Config) (*StreamLink, error) {
	if c == nil {
		c = &Config{}
	}

	var power *powerSwitch
	if c.PowerGPIO > 0 {
		var err error
		if power, err = newPowerSwitch(c.PowerGPIO); err != nil {
			return nil, errors.Wrap(err, "could not setup power pin")
		}
		power.cycle()
	}

	port, err := serial.Open(c.Port(), &serial.Mode{
		BaudRate: c.Baud(),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		if power != nil {
			power.release()
		}
		return nil, errors.Wrap(err, "could not open serial")
	}

	if err = port.SetReadTimeout(time.Millisecond); err != nil {
		port.Close()
		if power != nil {
			power.release()
		}
		return nil, errors.Wrap(err, "could not set read timeout")
	}

	l := NewStreamLink(port)
	l.reset = port.ResetInputBuffer
	l.power = power

	logrus.Debugf("esc link open: %s @ %d", c.Port(), c.Baud())

	return l, nil
}

// DialTCP connects to a serial-over-TCP bridge such as ser2net.
func DialTCP(addr string) (*StreamLink, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, errors.Wrapf(err, "could not dial %s", addr)
	}

	logrus.Debugf("esc link open: tcp %s", addr)

	return NewStreamLink(conn), nil
}

// rxLoop is the loop that will forever read from the stream and append the
// incoming bytes to the rx buffer
func (l *StreamLink) rxLoop() {
	defer close(l.done)

	buf := make([]byte, 64)
	for {
		n, err := l.rw.Read(buf)
		if n > 0 {
			l.deliver(buf[:n], time.Now())
		}
		if err != nil {
			// don't write out if we're just complaining about it being closed
			if !isClosedErr(err) && !l.closing() {
				logrus.Error("rx err: ", err.Error())
			}
			return
		}
	}
}

// deliver buffers bytes that came off the stream at readAt. Bytes read
// before the last FlushInput are stale even if they get here after it.
func (l *StreamLink) deliver(bs []byte, readAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !readAt.After(l.flushedAt) {
		return
	}

	l.rx = append(l.rx, bs...)
	if over := len(l.rx) - rxBufferSize; over > 0 {
		l.rx = l.rx[over:]
	}
}

func isClosedErr(err error) bool {
	if perr, ok := err.(*serial.PortError); ok && perr.Code() == serial.PortClosed {
		return true
	}
	return errors.Is(err, syscall.EBADF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF)
}

func (l *StreamLink) closing() bool {
	select {
	case <-l.quit:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the stream is still delivering data.
func (l *StreamLink) IsOpen() bool {
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

func (l *StreamLink) Write(bs []byte) (int, error) {
	if !l.IsOpen() {
		return 0, ErrClosed
	}
	return l.rw.Write(bs)
}

func (l *StreamLink) ReadAvailable() ([]byte, error) {
	l.mu.Lock()
	bs := l.rx
	l.rx = nil
	l.mu.Unlock()

	if len(bs) == 0 && !l.IsOpen() {
		return nil, ErrClosed
	}
	return bs, nil
}

func (l *StreamLink) FlushInput() error {
	if !l.IsOpen() {
		return ErrClosed
	}
	if l.reset != nil {
		if err := l.reset(); err != nil {
			return errors.Wrap(err, "could not reset input buffer")
		}
	}

	l.mu.Lock()
	l.flushedAt = time.Now()
	l.rx = nil
	l.mu.Unlock()

	return nil
}

// Close will close the stream and release the power pin, if any
func (l *StreamLink) Close() error {
	var err error
	l.once.Do(func() {
		close(l.quit)
		err = l.rw.Close()
		<-l.done

		if l.power != nil {
			l.power.release()
		}

		logrus.Debug("esc link close")
	})
	return err
}
