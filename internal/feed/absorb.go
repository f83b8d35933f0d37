package feed

import (
	"sync"

	"github.com/GoTickGate/tickgate/internal/pkg/logger"
	"github.com/GoTickGate/tickgate/internal/pkg/metrics"
)

// shutdownCollector is the shutdown fault policy made explicit: every
// result is collected, failures are logged and counted, and nothing is
// ever re-raised to the caller. Both shutdown phases use it.
type shutdownCollector struct {
	stage string

	mu       sync.Mutex
	failures []feedError
}

type feedError struct {
	id  string
	err error
}

func newShutdownCollector(stage string) *shutdownCollector {
	return &shutdownCollector{stage: stage}
}

// Observe records one task result. A nil error is a successful completion.
func (c *shutdownCollector) Observe(id string, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.failures = append(c.failures, feedError{id: id, err: err})
	c.mu.Unlock()

	logger.Error("feed shutdown task failed", "stage", c.stage, "feed", id, "error", err)
	metrics.ShutdownErrors.WithLabelValues(id).Inc()
}

func (c *shutdownCollector) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures)
}
