//go:build !linux && !darwin

package log

import "os"

// IsTerminal always reports false on platforms without termios.
func IsTerminal(f *os.File) bool {
	return false
}
