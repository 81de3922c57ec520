//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows
// +build !linux,!darwin,!freebsd,!netbsd,!openbsd,!windows

package cli

// IsTerminal reports whether fd refers to a terminal
func IsTerminal(fd uintptr) bool {
	return false
}
