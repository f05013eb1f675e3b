package flash

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  []byte
	}{
		{
			name:  "set address",
			frame: buildSetAddress(0x1234),
			want:  []byte{0xff, 0x00, 0x12, 0x34, 0x3d, 0x63},
		},
		{
			name:  "set address flash start",
			frame: buildSetAddress(FlashStartAddress),
			want:  []byte{0xff, 0x00, 0x10, 0x00, 0x3d, 0xd4},
		},
		{
			name:  "set buffer size 256 wraps to 0",
			frame: buildSetBufferSize(256),
			want:  []byte{0xfe, 0x00, 0x00, 0x00, 0x31, 0xe8},
		},
		{
			name:  "set buffer size 128",
			frame: buildSetBufferSize(128),
			want:  []byte{0xfe, 0x00, 0x00, 0x80, 0x30, 0x48},
		},
		{
			name:  "write flash",
			frame: buildWriteFlash(),
			want:  []byte{0x01, 0x01, 0xc0, 0x50},
		},
		{
			name:  "read flash 48",
			frame: buildReadFlash(48),
			want:  []byte{0x03, 0x30, 0x00, 0xe4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.frame, tt.want) {
				t.Errorf("frame = % x, want % x", tt.frame, tt.want)
			}
		})
	}
}

func TestInitSequence(t *testing.T) {
	if len(initSequence) != 21 {
		t.Fatalf("len(initSequence) = %d, want 21", len(initSequence))
	}
	if !bytes.Equal(initSequence[:12], make([]byte, 12)) {
		t.Errorf("init sequence must start with 12 zero bytes: % x", initSequence[:12])
	}
	if !bytes.Equal(initSequence[12:], []byte{0x0d, 'B', 'L', 'H', 'e', 'l', 'i', 0xf4, 0x7d}) {
		t.Errorf("init sequence tail = % x", initSequence[12:])
	}
}

func TestAppendPayloadCRC(t *testing.T) {
	payload := []byte{1, 2, 3}
	framed := appendPayloadCRC(payload)

	if !bytes.Equal(payload, []byte{1, 2, 3}) {
		t.Errorf("payload mutated: % x", payload)
	}
	if len(framed) != 5 || !bytes.Equal(framed[:3], payload) {
		t.Errorf("framed = % x", framed)
	}
}

func TestValidateResponse(t *testing.T) {
	data := []byte("settings")
	good := append([]byte{0x03, 0x08, 0xaa, 0xbb}, appendCRC(data)...)
	good = append(good, bACK)

	tests := []struct {
		name    string
		raw     []byte
		n       int
		want    []byte
		wantErr error
	}{
		{name: "echo before data", raw: good, n: len(data), want: data},
		{name: "no echo", raw: append(appendCRC(data), bACK), n: len(data), want: data},
		{name: "crc swapped", raw: append(append(append([]byte(nil), data...), good[len(good)-2], good[len(good)-3]), bACK), n: len(data), wantErr: ErrChecksumMismatch},
		{name: "too short", raw: []byte{0x01, bACK}, n: len(data), wantErr: ErrChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateResponse(tt.raw, tt.n)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("validateResponse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("validateResponse() unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("validateResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}
