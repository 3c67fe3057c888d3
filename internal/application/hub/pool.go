package hub

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Start launches the delivery worker pool
func (d *Dispatcher) Start() error {
	d.logger.Info("starting delivery workers", zap.Int("workers", d.workerCount))

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.deliverLoop(i)
	}

	return nil
}

// deliverLoop is the main loop of one delivery worker
func (d *Dispatcher) deliverLoop(id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case del := <-d.queue:
			d.metrics.SetQueueDepth(len(d.queue))

			// Failures are logged and swallowed; delivery is best-effort.
			if err := del.sender.Send(del.event); err != nil {
				d.metrics.RecordDroppedEvent("send_failed")
				d.logger.Debug("event delivery failed",
					zap.Int("worker", id),
					zap.String("conn_id", del.connID),
					zap.String("event_type", string(del.event.Type)),
					zap.Error(err))
			}
		}
	}
}

// Shutdown stops the worker pool, waiting for in-flight deliveries up to the
// context deadline. Queued but undelivered events are dropped.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.logger.Info("shutting down dispatcher")

	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown timeout")
	}
}
