package scheduler

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/application/sync"
	"github.com/draheim/zoho-sync/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Job Types
// ---------------------------------------------------------------------------

// SyncJobStatus represents the status of an order sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
	// SyncJobStatusSkipped means another run already held the guard for
	// this order when the job reached a worker.
	SyncJobStatusSkipped SyncJobStatus = "SKIPPED"
)

// SyncJob represents one queued order sync attempt. Jobs are not retried:
// a failed job stays failed and the order must be re-submitted explicitly.
// Workers mutate the job while it runs; Submit, History and Job hand out
// snapshot copies, never the live job.
type SyncJob struct {
	ID          uuid.UUID
	OrderID     string
	Status      SyncJobStatus
	SubmittedAt time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	// Result is set once the job finishes (success or failure).
	Result *sync.Result

	mu stdsync.Mutex
}

// NewSyncJob creates a pending job for an order.
func NewSyncJob(orderID string) *SyncJob {
	return &SyncJob{
		ID:          uuid.New(),
		OrderID:     orderID,
		Status:      SyncJobStatusPending,
		SubmittedAt: time.Now(),
	}
}

func (j *SyncJob) start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
}

func (j *SyncJob) finish(result sync.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.CompletedAt = &now
	j.Result = &result
	if result.Succeeded() {
		j.Status = SyncJobStatusSuccess
	} else {
		j.Status = SyncJobStatusFailed
	}
}

func (j *SyncJob) skip() {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.CompletedAt = &now
	j.Status = SyncJobStatusSkipped
}

// snapshot returns a consistent copy safe to read and serialize while the
// worker keeps mutating the live job.
func (j *SyncJob) snapshot() *SyncJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	return &SyncJob{
		ID:          j.ID,
		OrderID:     j.OrderID,
		Status:      j.Status,
		SubmittedAt: j.SubmittedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Result:      j.Result,
	}
}

// ---------------------------------------------------------------------------
// Collaborator Interfaces
// ---------------------------------------------------------------------------

// Syncer runs the order sync pipeline for one order.
type Syncer interface {
	SyncOrder(ctx context.Context, orderID string) sync.Result
}

// ResultRecorder persists sync outcomes.
type ResultRecorder interface {
	Record(ctx context.Context, result sync.Result) error
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig
// ---------------------------------------------------------------------------

// SyncSchedulerConfig holds configuration for the sync scheduler
type SyncSchedulerConfig struct {
	// Workers is the number of concurrent sync workers
	Workers int
	// QueueSize is the capacity of the job queue
	QueueSize int
	// HistorySize bounds the in-memory job history
	HistorySize int
	// JobTimeout is the maximum time a single sync may run
	JobTimeout time.Duration
	// GuardTTL bounds how long a crashed run can hold an order's guard key
	GuardTTL time.Duration
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Workers:     4,
		QueueSize:   100,
		HistorySize: 200,
		JobTimeout:  5 * time.Minute,
		GuardTTL:    10 * time.Minute,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	if c.HistorySize <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.GuardTTL <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// SyncScheduler runs order syncs on a bounded worker pool. Each job is
// guarded per order ID so the same order is never synced twice at once,
// and every finished job's result is persisted through the recorder.
type SyncScheduler struct {
	config   SyncSchedulerConfig
	syncer   Syncer
	guard    shared.SyncGuard
	recorder ResultRecorder
	logger   *zap.Logger

	jobs      chan *SyncJob
	cancel    context.CancelFunc
	wg        stdsync.WaitGroup
	mu        stdsync.Mutex
	isRunning bool

	historyMu stdsync.RWMutex
	history   []*SyncJob
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(
	config SyncSchedulerConfig,
	syncer Syncer,
	guard shared.SyncGuard,
	recorder ResultRecorder,
	logger *zap.Logger,
) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SyncScheduler{
		config:   config,
		syncer:   syncer,
		guard:    guard,
		recorder: recorder,
		logger:   logger,
		jobs:     make(chan *SyncJob, config.QueueSize),
		history:  make([]*SyncJob, 0, config.HistorySize),
	}, nil
}

// Start starts the worker pool
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}
	// Closed under the same lock Submit sends under, so a racing Submit
	// can never hit a closed channel.
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues an order for syncing and returns a snapshot of the created
// job.
func (s *SyncScheduler) Submit(orderID string) (*SyncJob, error) {
	job := NewSyncJob(orderID)

	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil, ErrSchedulerNotRunning
	}
	select {
	case s.jobs <- job:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		return nil, ErrJobQueueFull
	}

	s.addToHistory(job)
	s.logger.Debug("Sync job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("order_id", job.OrderID),
	)
	return job.snapshot(), nil
}

// worker processes jobs from the queue
func (s *SyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Sync worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sync worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Sync job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job under the per-order guard.
func (s *SyncScheduler) processJob(ctx context.Context, job *SyncJob, workerID int) {
	guardKey := "order-sync:" + job.OrderID

	acquired, err := s.guard.Acquire(ctx, guardKey, s.config.GuardTTL)
	if err != nil {
		s.logger.Error("Failed to acquire sync guard",
			zap.String("job_id", job.ID.String()),
			zap.String("order_id", job.OrderID),
			zap.Error(err),
		)
		job.skip()
		return
	}
	if !acquired {
		s.logger.Warn("Order sync already in progress, skipping",
			zap.String("job_id", job.ID.String()),
			zap.String("order_id", job.OrderID),
		)
		job.skip()
		return
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), guardKey); err != nil {
			s.logger.Error("Failed to release sync guard",
				zap.String("order_id", job.OrderID),
				zap.Error(err),
			)
		}
	}()

	job.start()
	s.logger.Info("Processing sync job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("order_id", job.OrderID),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	result := s.syncer.SyncOrder(jobCtx, job.OrderID)
	job.finish(result)

	if err := s.recorder.Record(jobCtx, result); err != nil {
		s.logger.Error("Failed to record sync result",
			zap.String("job_id", job.ID.String()),
			zap.String("order_id", job.OrderID),
			zap.Error(err),
		)
	}

	if result.Succeeded() {
		s.logger.Info("Sync job completed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("order_id", job.OrderID),
			zap.String("estimate_id", result.Estimate.EstimateID),
		)
	} else {
		s.logger.Error("Sync job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("order_id", job.OrderID),
			zap.String("kind", string(result.Kind)),
			zap.String("message", result.Message),
		)
	}
}

// addToHistory records a job in the bounded history, newest first.
func (s *SyncScheduler) addToHistory(job *SyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SyncJob{job}, s.history...)
	if len(s.history) > s.config.HistorySize {
		s.history = s.history[:s.config.HistorySize]
	}
}

// History returns snapshots of recent jobs, newest first.
func (s *SyncScheduler) History(limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*SyncJob, limit)
	for i, job := range s.history[:limit] {
		result[i] = job.snapshot()
	}
	return result
}

// Job returns a snapshot of the job with the given ID, or nil if it has
// already been evicted from the history.
func (s *SyncScheduler) Job(id uuid.UUID) *SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	for _, job := range s.history {
		if job.ID == id {
			return job.snapshot()
		}
	}
	return nil
}
