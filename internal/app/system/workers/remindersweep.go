// internal/app/system/workers/remindersweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/fleethub/internal/app/system/alerting"
	"go.uber.org/zap"
)

// ReminderSweep is a background worker that periodically evaluates the
// service-hours reminder across the whole fleet.
type ReminderSweep struct {
	evaluator *alerting.Evaluator
	log       *zap.Logger
	interval  time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewReminderSweep creates a reminder sweep worker. interval is how often the
// fleet is swept (e.g. 1 hour); the evaluator's de-duplication window keeps
// shorter intervals from producing duplicate alerts.
func NewReminderSweep(evaluator *alerting.Evaluator, logger *zap.Logger, interval time.Duration) *ReminderSweep {
	return &ReminderSweep{
		evaluator: evaluator,
		log:       logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *ReminderSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("reminder sweep worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ReminderSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("reminder sweep worker stopped")
}

func (w *ReminderSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *ReminderSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	w.evaluator.Sweep(ctx)
}
