package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cutify/internal/logging"
)

// Dispatcher publishes events in the background so callers never wait on
// ntfy. Delivery errors are logged, not returned.
type Dispatcher struct {
	svc     Service
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wraps svc. A nil logger discards delivery errors.
func NewDispatcher(svc Service, logger *slog.Logger) *Dispatcher {
	if svc == nil {
		svc = noopService{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		svc:     svc,
		logger:  logging.NewComponentLogger(logger, "notifications"),
		timeout: 15 * time.Second,
	}
}

// Go publishes event asynchronously.
func (d *Dispatcher) Go(event Event, payload Payload) {
	if d == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.svc.Publish(ctx, event, payload); err != nil {
			logging.WarnWithContext(d.logger, "notification delivery failed", "notification_failed",
				logging.String("event", string(event)),
				logging.Error(err),
				logging.Hint("check ntfy_topic and network access"),
			)
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
