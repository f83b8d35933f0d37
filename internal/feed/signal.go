package feed

import (
	"os"
	"os/signal"

	"github.com/GoTickGate/tickgate/internal/pkg/logger"
)

// InstallTrap routes the platform's termination signal set uniformly onto
// term; the specific signal carries no distinct behaviour. The returned
// release function uninstalls the trap. Must only be installed by the
// goroutine that owns the supervisor's run loop; a supervisor embedded off
// the main goroutine skips installation and relies on the primary trap,
// since signal delivery is process-wide.
func InstallTrap(term *Termination) (release func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, terminationSignals...)

	go func() {
		sig, ok := <-ch
		if !ok {
			return
		}
		logger.Info("termination signal received", "signal", sig.String())
		term.Set()
	}()

	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
