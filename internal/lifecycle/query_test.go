package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{90 * time.Second, "00:01:30"},
		{25 * time.Hour, "1 days, 01:00:00"},
		{49*time.Hour + 2*time.Minute + 3*time.Second, "2 days, 01:02:03"},
		{23*time.Hour + 59*time.Minute + 59*time.Second, "23:59:59"},
		{-time.Minute, "00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUptime(tt.d))
		})
	}
}
