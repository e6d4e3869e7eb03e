package scheduler

import (
	"context"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/application/sync"
	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

type mockSyncer struct {
	syncCount int32
	syncFunc  func(ctx context.Context, orderID string) sync.Result
}

func (m *mockSyncer) SyncOrder(ctx context.Context, orderID string) sync.Result {
	atomic.AddInt32(&m.syncCount, 1)
	if m.syncFunc != nil {
		return m.syncFunc(ctx, orderID)
	}
	return sync.Result{
		Status:   sync.StatusSuccess,
		OrderID:  orderID,
		Estimate: &accounting.Estimate{EstimateID: "est-1", EstimateNumber: "EST-000001"},
	}
}

type mockRecorder struct {
	mu      stdsync.Mutex
	results []sync.Result
}

func (m *mockRecorder) Record(_ context.Context, result sync.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
	return nil
}

func (m *mockRecorder) recorded() []sync.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sync.Result, len(m.results))
	copy(out, m.results)
	return out
}

// fakeGuard holds keys in a map so tests can pre-claim an order.
type fakeGuard struct {
	mu   stdsync.Mutex
	held map[string]bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{held: make(map[string]bool)}
}

func (g *fakeGuard) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	return nil
}

func (g *fakeGuard) Close() error { return nil }

func newTestScheduler(t *testing.T, config SyncSchedulerConfig, syncer Syncer, guard *fakeGuard, recorder *mockRecorder) *SyncScheduler {
	t.Helper()
	s, err := NewSyncScheduler(config, syncer, guard, recorder, zap.NewNop())
	require.NoError(t, err)
	return s
}

func stopScheduler(t *testing.T, s *SyncScheduler) {
	t.Helper()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
}

// ---------------------------------------------------------------------------
// SyncJob Tests
// ---------------------------------------------------------------------------

func TestNewSyncJob(t *testing.T) {
	job := NewSyncJob("order-1")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "order-1", job.OrderID)
	assert.Equal(t, SyncJobStatusPending, job.Status)
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
	assert.Nil(t, job.Result)
}

func TestSyncJob_FinishSuccess(t *testing.T) {
	job := NewSyncJob("order-1")
	job.start()
	assert.Equal(t, SyncJobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	job.finish(sync.Result{Status: sync.StatusSuccess, OrderID: "order-1"})

	assert.Equal(t, SyncJobStatusSuccess, job.Status)
	assert.NotNil(t, job.CompletedAt)
	require.NotNil(t, job.Result)
	assert.Equal(t, "order-1", job.Result.OrderID)
}

func TestSyncJob_FinishFailure(t *testing.T) {
	job := NewSyncJob("order-1")
	job.start()

	job.finish(sync.Result{Status: sync.StatusError, OrderID: "order-1", Kind: sync.FailureItem})

	assert.Equal(t, SyncJobStatusFailed, job.Status)
	require.NotNil(t, job.Result)
	assert.Equal(t, sync.FailureItem, job.Result.Kind)
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig Tests
// ---------------------------------------------------------------------------

func TestSyncSchedulerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *SyncSchedulerConfig)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(c *SyncSchedulerConfig) {}},
		{name: "zero workers", mutate: func(c *SyncSchedulerConfig) { c.Workers = 0 }, wantErr: true},
		{name: "zero queue size", mutate: func(c *SyncSchedulerConfig) { c.QueueSize = 0 }, wantErr: true},
		{name: "zero history size", mutate: func(c *SyncSchedulerConfig) { c.HistorySize = 0 }, wantErr: true},
		{name: "zero job timeout", mutate: func(c *SyncSchedulerConfig) { c.JobTimeout = 0 }, wantErr: true},
		{name: "zero guard ttl", mutate: func(c *SyncSchedulerConfig) { c.GuardTTL = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultSyncSchedulerConfig()
			tt.mutate(&config)
			err := config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// SyncScheduler Tests
// ---------------------------------------------------------------------------

func TestSyncScheduler_SubmitNotRunning(t *testing.T) {
	s := newTestScheduler(t, DefaultSyncSchedulerConfig(), &mockSyncer{}, newFakeGuard(), &mockRecorder{})

	_, err := s.Submit("order-1")
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestSyncScheduler_ProcessesSubmittedJob(t *testing.T) {
	syncer := &mockSyncer{}
	recorder := &mockRecorder{}
	s := newTestScheduler(t, DefaultSyncSchedulerConfig(), syncer, newFakeGuard(), recorder)

	require.NoError(t, s.Start(t.Context()))

	job, err := s.Submit("order-1")
	require.NoError(t, err)
	assert.Equal(t, SyncJobStatusPending, job.Status)

	time.Sleep(100 * time.Millisecond)
	stopScheduler(t, s)

	assert.Equal(t, int32(1), atomic.LoadInt32(&syncer.syncCount))
	final := s.Job(job.ID)
	require.NotNil(t, final)
	assert.Equal(t, SyncJobStatusSuccess, final.Status)
	require.NotNil(t, final.Result)
	assert.Equal(t, "EST-000001", final.Result.Estimate.EstimateNumber)

	results := recorder.recorded()
	require.Len(t, results, 1)
	assert.Equal(t, "order-1", results[0].OrderID)
}

func TestSyncScheduler_RecordsFailureWithoutRetry(t *testing.T) {
	syncer := &mockSyncer{
		syncFunc: func(_ context.Context, orderID string) sync.Result {
			return sync.Result{
				Status:  sync.StatusError,
				OrderID: orderID,
				Kind:    sync.FailureCustomer,
				Message: "customer: boom",
			}
		},
	}
	recorder := &mockRecorder{}
	s := newTestScheduler(t, DefaultSyncSchedulerConfig(), syncer, newFakeGuard(), recorder)

	require.NoError(t, s.Start(t.Context()))

	job, err := s.Submit("order-1")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	stopScheduler(t, s)

	// A failed sync is recorded once and never re-queued.
	assert.Equal(t, int32(1), atomic.LoadInt32(&syncer.syncCount))
	final := s.Job(job.ID)
	require.NotNil(t, final)
	assert.Equal(t, SyncJobStatusFailed, final.Status)

	results := recorder.recorded()
	require.Len(t, results, 1)
	assert.Equal(t, sync.FailureCustomer, results[0].Kind)
}

func TestSyncScheduler_SkipsGuardedOrder(t *testing.T) {
	syncer := &mockSyncer{}
	guard := newFakeGuard()
	s := newTestScheduler(t, DefaultSyncSchedulerConfig(), syncer, guard, &mockRecorder{})

	// Another run already owns this order.
	acquired, err := guard.Acquire(t.Context(), "order-sync:order-1", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, s.Start(t.Context()))

	job, err := s.Submit("order-1")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	stopScheduler(t, s)

	final := s.Job(job.ID)
	require.NotNil(t, final)
	assert.Equal(t, SyncJobStatusSkipped, final.Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&syncer.syncCount))
	// The foreign holder keeps its claim.
	assert.True(t, guard.held["order-sync:order-1"])
}

func TestSyncScheduler_ReleasesGuardAfterRun(t *testing.T) {
	guard := newFakeGuard()
	s := newTestScheduler(t, DefaultSyncSchedulerConfig(), &mockSyncer{}, guard, &mockRecorder{})

	require.NoError(t, s.Start(t.Context()))

	_, err := s.Submit("order-1")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	stopScheduler(t, s)

	guard.mu.Lock()
	defer guard.mu.Unlock()
	assert.Empty(t, guard.held)
}

func TestSyncScheduler_QueueFull(t *testing.T) {
	config := DefaultSyncSchedulerConfig()
	config.Workers = 1
	config.QueueSize = 1

	release := make(chan struct{})
	syncer := &mockSyncer{
		syncFunc: func(_ context.Context, orderID string) sync.Result {
			<-release
			return sync.Result{Status: sync.StatusSuccess, OrderID: orderID, Estimate: &accounting.Estimate{}}
		},
	}
	s := newTestScheduler(t, config, syncer, newFakeGuard(), &mockRecorder{})

	require.NoError(t, s.Start(t.Context()))
	defer func() {
		close(release)
		stopScheduler(t, s)
	}()

	// First job occupies the worker, second fills the queue.
	_, err := s.Submit("order-1")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = s.Submit("order-2")
	require.NoError(t, err)

	_, err = s.Submit("order-3")
	assert.ErrorIs(t, err, ErrJobQueueFull)
}

func TestSyncScheduler_History(t *testing.T) {
	config := DefaultSyncSchedulerConfig()
	config.HistorySize = 2
	s := newTestScheduler(t, config, &mockSyncer{}, newFakeGuard(), &mockRecorder{})

	require.NoError(t, s.Start(t.Context()))

	var last *SyncJob
	for _, id := range []string{"order-1", "order-2", "order-3"} {
		job, err := s.Submit(id)
		require.NoError(t, err)
		last = job
		time.Sleep(50 * time.Millisecond)
	}
	stopScheduler(t, s)

	history := s.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, "order-3", history[0].OrderID)
	assert.Equal(t, "order-2", history[1].OrderID)

	found := s.Job(last.ID)
	require.NotNil(t, found)
	assert.Equal(t, last.ID, found.ID)
	assert.Equal(t, SyncJobStatusSuccess, found.Status)
	evicted := s.Job(NewSyncJob("other").ID)
	assert.Nil(t, evicted)
}

func TestSyncScheduler_HistoryReturnsSnapshots(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	syncer := &mockSyncer{syncFunc: func(_ context.Context, orderID string) sync.Result {
		close(started)
		<-release
		return sync.Result{Status: sync.StatusSuccess, OrderID: orderID,
			Estimate: &accounting.Estimate{EstimateID: "est-1"}}
	}}
	s := newTestScheduler(t, DefaultSyncSchedulerConfig(), syncer, newFakeGuard(), &mockRecorder{})

	require.NoError(t, s.Start(t.Context()))
	submitted, err := s.Submit("order-1")
	require.NoError(t, err)
	// The worker may or may not have picked the job up yet, but it cannot
	// have finished.
	assert.Contains(t, []SyncJobStatus{SyncJobStatusPending, SyncJobStatusRunning}, submitted.Status)
	assert.Nil(t, submitted.Result)

	<-started
	running := s.History(1)[0]
	assert.Equal(t, SyncJobStatusRunning, running.Status)
	assert.Nil(t, running.Result)

	close(release)
	time.Sleep(100 * time.Millisecond)
	stopScheduler(t, s)

	// Earlier snapshots stay frozen at what they observed.
	assert.Nil(t, submitted.Result)
	assert.Equal(t, SyncJobStatusRunning, running.Status)
	assert.Nil(t, running.Result)

	done := s.History(1)[0]
	assert.Equal(t, SyncJobStatusSuccess, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, "est-1", done.Result.Estimate.EstimateID)
}

func TestSyncScheduler_ConcurrentSubmitDuringStop(t *testing.T) {
	config := DefaultSyncSchedulerConfig()
	config.Workers = 2
	config.QueueSize = 4
	s := newTestScheduler(t, config, &mockSyncer{}, newFakeGuard(), &mockRecorder{})

	require.NoError(t, s.Start(t.Context()))

	var wg stdsync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := s.Submit("order-1")
				if err != nil {
					assert.Contains(t, []error{ErrJobQueueFull, ErrSchedulerNotRunning}, err)
				}
			}
		}()
	}
	stopScheduler(t, s)
	wg.Wait()

	_, err := s.Submit("order-1")
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}
