package process

import (
	"os"
	"syscall"
	"time"

	gops "github.com/shirou/gopsutil/v3/process"
)

// IsProcessAlive checks if a process with the given PID is still running.
// It uses a signal-sending method that is cross-platform for Unix-like systems (macOS, Linux).
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	// Find the process. This doesn't fail on Unix if the process doesn't exist.
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 probes for existence. EPERM means the process exists but
	// belongs to someone else.
	err = process.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}

// Info describes a running process.
type Info struct {
	PID       int       `json:"pid"`
	Name      string    `json:"name,omitempty"`
	StartedAt time.Time `json:"started_at"`
	RSS       uint64    `json:"rss_bytes"`
}

// Uptime returns how long the process has been running at now.
func (i Info) Uptime(now time.Time) time.Duration {
	if i.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(i.StartedAt)
}

// Describe gathers name, start time and resident memory for pid. Fields the
// platform cannot report are left zero.
func Describe(pid int) (Info, error) {
	p, err := gops.NewProcess(int32(pid))
	if err != nil {
		return Info{}, err
	}

	info := Info{PID: pid}
	if name, err := p.Name(); err == nil {
		info.Name = name
	}
	if ms, err := p.CreateTime(); err == nil {
		info.StartedAt = time.UnixMilli(ms)
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		info.RSS = mem.RSS
	}
	return info, nil
}
