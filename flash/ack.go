package flash

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const bACK byte = 0x30

// awaitAck polls the link until a response ending in the ack byte shows up.
// Each poll sleeps the settle delay and then takes a snapshot of the buffered
// input; a snapshot replaces the previous one. The acknowledged response is
// returned so callers can parse what precedes the ack.
func (s *Session) awaitAck() ([]byte, error) {
	for i := 0; i < AckPollAttempts; i++ {
		s.sleep(s.config.settleDelay())

		bs, err := s.link.ReadAvailable()
		if err != nil {
			return nil, errors.Wrap(err, "could not read from esc")
		}
		if len(bs) == 0 {
			continue
		}

		logrus.Debugf("esc rx: %x", bs)

		if len(bs) > 1 && bs[len(bs)-1] == bACK {
			return bs, nil
		}
	}

	return nil, ErrNoAck
}
