package flash

import "testing"

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total int64
		want        int
	}{
		{0, 0, 0},
		{0, 10, 0},
		{3, 10, 30},
		{1, 3, 33},
		{10, 10, 100},
		{11, 10, 100},
		{5, 0, 0},
	}

	for _, tt := range tests {
		if got := percent(tt.done, tt.total); got != tt.want {
			t.Errorf("percent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}
