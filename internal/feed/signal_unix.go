//go:build unix

package feed

import (
	"os"
	"syscall"
)

var terminationSignals = []os.Signal{
	syscall.SIGABRT,
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGHUP,
}
