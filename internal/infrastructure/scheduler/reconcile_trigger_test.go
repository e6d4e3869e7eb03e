package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/application/sync"
)

type mockReconciler struct {
	runCount int32
	runFunc  func(ctx context.Context) (*sync.ReconcileReport, error)
}

func (m *mockReconciler) Run(ctx context.Context) (*sync.ReconcileReport, error) {
	atomic.AddInt32(&m.runCount, 1)
	if m.runFunc != nil {
		return m.runFunc(ctx)
	}
	return &sync.ReconcileReport{}, nil
}

func TestNewReconcileTrigger_InvalidInterval(t *testing.T) {
	_, err := NewReconcileTrigger(ReconcileTriggerConfig{Interval: 0}, &mockReconciler{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestReconcileTrigger_RunsOnInterval(t *testing.T) {
	reconciler := &mockReconciler{}
	trigger, err := NewReconcileTrigger(ReconcileTriggerConfig{Interval: 20 * time.Millisecond}, reconciler, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, trigger.Start(t.Context()))

	time.Sleep(110 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(stopCtx))

	assert.GreaterOrEqual(t, atomic.LoadInt32(&reconciler.runCount), int32(3))
}

func TestReconcileTrigger_KeepsRunningAfterFailedPass(t *testing.T) {
	reconciler := &mockReconciler{
		runFunc: func(context.Context) (*sync.ReconcileReport, error) {
			return nil, errors.New("accounting service unavailable")
		},
	}
	trigger, err := NewReconcileTrigger(ReconcileTriggerConfig{Interval: 20 * time.Millisecond}, reconciler, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, trigger.Start(t.Context()))

	time.Sleep(110 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(stopCtx))

	// A failing pass is logged and the loop keeps ticking.
	assert.GreaterOrEqual(t, atomic.LoadInt32(&reconciler.runCount), int32(2))
}

func TestReconcileTrigger_StartStopIdempotent(t *testing.T) {
	trigger, err := NewReconcileTrigger(DefaultReconcileTriggerConfig(), &mockReconciler{}, zap.NewNop())
	require.NoError(t, err)

	ctx := t.Context()
	require.NoError(t, trigger.Start(ctx))
	require.NoError(t, trigger.Start(ctx))

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(stopCtx))
	require.NoError(t, trigger.Stop(stopCtx))
}
