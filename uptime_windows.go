//go:build windows

package levelsync

import (
	"time"

	"golang.org/x/sys/windows"
)

// SystemUptime returns the time since the machine booted.
func SystemUptime() (time.Duration, error) {
	return windows.DurationSinceBoot(), nil
}
