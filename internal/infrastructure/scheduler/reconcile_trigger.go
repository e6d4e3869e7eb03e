package scheduler

import (
	"context"
	stdsync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/application/sync"
)

// Reconciler performs one payment-option reconciliation pass.
type Reconciler interface {
	Run(ctx context.Context) (*sync.ReconcileReport, error)
}

// ReconcileTriggerConfig holds configuration for the reconcile trigger
type ReconcileTriggerConfig struct {
	// Interval is how often a reconciliation pass runs
	Interval time.Duration
}

// DefaultReconcileTriggerConfig returns default configuration
func DefaultReconcileTriggerConfig() ReconcileTriggerConfig {
	return ReconcileTriggerConfig{
		Interval: 15 * time.Minute,
	}
}

// ReconcileTrigger runs the reconciliation pass on a fixed interval.
// The pass takes no arguments: it re-derives its work from the accepted
// estimates on every run, so a missed tick costs nothing.
type ReconcileTrigger struct {
	config     ReconcileTriggerConfig
	reconciler Reconciler
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        stdsync.WaitGroup
	mu        stdsync.Mutex
	isRunning bool
}

// NewReconcileTrigger creates a new reconcile trigger
func NewReconcileTrigger(config ReconcileTriggerConfig, reconciler Reconciler, logger *zap.Logger) (*ReconcileTrigger, error) {
	if config.Interval <= 0 {
		return nil, ErrInvalidConfig
	}
	return &ReconcileTrigger{
		config:     config,
		reconciler: reconciler,
		logger:     logger,
	}, nil
}

// Start starts the trigger loop
func (t *ReconcileTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Reconcile trigger started",
		zap.Duration("interval", t.config.Interval),
	)

	return nil
}

// Stop stops the trigger loop
func (t *ReconcileTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Reconcile trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *ReconcileTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.runOnce(ctx)
		}
	}
}

func (t *ReconcileTrigger) runOnce(ctx context.Context) {
	report, err := t.reconciler.Run(ctx)
	if err != nil {
		t.logger.Error("Reconciliation pass failed", zap.Error(err))
		return
	}

	t.logger.Info("Reconciliation pass finished",
		zap.Int("estimates", len(report.Estimates)),
		zap.Int("updated", report.Updated),
	)
}
