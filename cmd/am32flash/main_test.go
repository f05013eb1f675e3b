package main

import (
	"testing"
	"time"

	"github.com/synthread/go-am32flash/flash"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name        string
		retries     int
		attempts    int
		wantRetries int
		wantErr     bool
	}{
		{name: "defaults", retries: flash.DefaultResetRetries, attempts: flash.DefaultSendAttempts, wantRetries: flash.DefaultResetRetries},
		{name: "zero retries sends once", retries: 0, attempts: 1, wantRetries: flash.NoRetries},
		{name: "negative retries", retries: -1, attempts: 1, wantErr: true},
		{name: "zero attempts", retries: 1, attempts: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newConfig("/dev/ttyUSB1", 19200, 25*time.Millisecond, tt.retries, tt.attempts, 0)
			if tt.wantErr {
				if err == nil {
					t.Errorf("newConfig() = %+v, want error", c)
				}
				return
			}
			if err != nil {
				t.Fatalf("newConfig() unexpected error: %v", err)
			}
			if c.ResetRetries != tt.wantRetries {
				t.Errorf("ResetRetries = %d, want %d", c.ResetRetries, tt.wantRetries)
			}
			if c.SendAttempts != tt.attempts {
				t.Errorf("SendAttempts = %d, want %d", c.SendAttempts, tt.attempts)
			}
			if c.Port() != "/dev/ttyUSB1" {
				t.Errorf("Port() = %q", c.Port())
			}
		})
	}
}
