//go:build windows

package feed

import (
	"os"
	"syscall"
)

var terminationSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
}
