//go:build !windows

package levelsync

import (
	"fmt"
	"time"

	"github.com/prometheus/procfs"
)

// SystemUptime returns the time since the machine booted, derived from the
// boot time in /proc/stat.
func SystemUptime() (time.Duration, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return 0, fmt.Errorf("open procfs: %w", err)
	}
	stat, err := fs.Stat()
	if err != nil {
		return 0, fmt.Errorf("read stat: %w", err)
	}
	boot := time.Unix(int64(stat.BootTime), 0)
	return time.Since(boot), nil
}
