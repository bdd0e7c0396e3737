package run

import (
	"regexp"
	"testing"
	"time"
)

func TestNewRunID_Format(t *testing.T) {
	id := NewRunID()
	if !regexp.MustCompile(`^\d{8}_\d{6}$`).MatchString(id) {
		t.Errorf("expected YYYYMMDD_HHMMSS, got %q", id)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{0, "0s"},
		{3*time.Minute + 42*time.Second, "3m 42s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h 2m 3s"},
		{90 * time.Minute, "1h 30m 0s"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
