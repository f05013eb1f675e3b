package flash

import (
	"time"

	"github.com/piotrjaromin/gpio"
)

// powerOffTime is long enough for the ESC rails to drain so the bootloader
// runs on the next power up
var powerOffTime = 500 * time.Millisecond
var powerOnSettle = 50 * time.Millisecond

// powerSwitch drives a GPIO controlling the ESC supply on bench rigs
type powerSwitch struct {
	pin gpio.Pin
}

func newPowerSwitch(n int) (*powerSwitch, error) {
	pin, err := gpio.NewOutput(uint(n), true)
	if err != nil {
		return nil, err
	}
	return &powerSwitch{pin: pin}, nil
}

// cycle will drop the supply and reapply it, leaving the ESC in the
// bootloader window
func (p *powerSwitch) cycle() {
	p.pin.Low()
	time.Sleep(powerOffTime)
	p.pin.High()
	time.Sleep(powerOnSettle)
}

// release will free the pin, resetting it to a running state
func (p *powerSwitch) release() {
	p.pin.High()
	p.pin.Cleanup()
}
