//go:build linux || darwin

package discovery

import "golang.org/x/sys/unix"

// IsAlive reports whether a process with the given pid is still running, by
// sending signal 0 (spec §4.8 "OS-specific: signal-0 probe"). Sending
// signal 0 performs error checking without actually delivering a signal.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err == unix.EPERM
}
