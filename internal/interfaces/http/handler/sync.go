package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/application/sync"
	"github.com/draheim/zoho-sync/internal/infrastructure/logger"
	"github.com/draheim/zoho-sync/internal/infrastructure/persistence/models"
	"github.com/draheim/zoho-sync/internal/infrastructure/scheduler"
	"github.com/draheim/zoho-sync/internal/interfaces/http/dto"
)

// JobSubmitter queues order sync jobs and exposes their history.
type JobSubmitter interface {
	Submit(orderID string) (*scheduler.SyncJob, error)
	History(limit int) []*scheduler.SyncJob
}

// RecordLister reads persisted sync outcomes.
type RecordLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.EstimateSyncRecordModel, error)
	ListByOrder(ctx context.Context, orderID string) ([]models.EstimateSyncRecordModel, error)
}

// Reconciler runs one payment-option reconciliation pass.
type Reconciler interface {
	Run(ctx context.Context) (*sync.ReconcileReport, error)
}

// SyncHandler exposes the order sync pipeline over HTTP.
type SyncHandler struct {
	BaseHandler
	jobs       JobSubmitter
	records    RecordLister
	reconciler Reconciler
}

func NewSyncHandler(jobs JobSubmitter, records RecordLister, reconciler Reconciler) *SyncHandler {
	return &SyncHandler{jobs: jobs, records: records, reconciler: reconciler}
}

// RegisterRoutes registers the sync endpoints.
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders/:id/sync", h.EnqueueOrderSync)
	rg.GET("/sync/jobs", h.ListJobs)
	rg.GET("/sync/records", h.ListRecords)
	rg.POST("/reconcile", h.Reconcile)
}

// JobResponse is the API shape of one sync job.
type JobResponse struct {
	ID          string       `json:"id"`
	OrderID     string       `json:"order_id"`
	Status      string       `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Result      *sync.Result `json:"result,omitempty"`
}

func jobResponse(job *scheduler.SyncJob) JobResponse {
	return JobResponse{
		ID:          job.ID.String(),
		OrderID:     job.OrderID,
		Status:      string(job.Status),
		SubmittedAt: job.SubmittedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		Result:      job.Result,
	}
}

// EnqueueOrderSync queues an order for syncing and returns the job.
func (h *SyncHandler) EnqueueOrderSync(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		h.BadRequest(c, "order id is required")
		return
	}

	job, err := h.jobs.Submit(orderID)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrJobQueueFull):
			h.ErrorWithCode(c, dto.ErrCodeQueueFull, "sync queue is full, retry later")
		case errors.Is(err, scheduler.ErrSchedulerNotRunning):
			h.ErrorWithCode(c, dto.ErrCodeUnavailable, "sync scheduler is not running")
		default:
			h.Internal(c, err.Error())
		}
		return
	}

	h.Accepted(c, jobResponse(job))
}

// ListJobs returns recent jobs, newest first.
func (h *SyncHandler) ListJobs(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 50)

	jobs := h.jobs.History(limit)
	out := make([]JobResponse, len(jobs))
	for i, job := range jobs {
		out[i] = jobResponse(job)
	}
	h.Success(c, out)
}

// RecordResponse is the API shape of one persisted sync outcome.
type RecordResponse struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	Status         string    `json:"status"`
	EstimateID     string    `json:"estimate_id,omitempty"`
	EstimateNumber string    `json:"estimate_number,omitempty"`
	FailureKind    string    `json:"failure_kind,omitempty"`
	Message        string    `json:"message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListRecords returns persisted sync outcomes, optionally scoped to one
// order via ?order_id=.
func (h *SyncHandler) ListRecords(c *gin.Context) {
	var (
		rows []models.EstimateSyncRecordModel
		err  error
	)
	if orderID := c.Query("order_id"); orderID != "" {
		rows, err = h.records.ListByOrder(c.Request.Context(), orderID)
	} else {
		rows, err = h.records.ListRecent(c.Request.Context(), parseLimit(c.Query("limit"), 50))
	}
	if err != nil {
		logger.FromGin(c).Error("Failed to list sync records", zap.Error(err))
		h.Internal(c, "failed to list sync records")
		return
	}

	out := make([]RecordResponse, len(rows))
	for i, row := range rows {
		out[i] = RecordResponse{
			ID:             row.ID.String(),
			OrderID:        row.OrderID,
			Status:         row.Status,
			EstimateID:     row.EstimateID,
			EstimateNumber: row.EstimateNumber,
			FailureKind:    row.FailureKind,
			Message:        row.Message,
			CreatedAt:      row.CreatedAt,
		}
	}
	h.Success(c, out)
}

// Reconcile runs one reconciliation pass synchronously.
func (h *SyncHandler) Reconcile(c *gin.Context) {
	report, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("Reconciliation pass failed", zap.Error(err))
		h.Internal(c, "reconciliation failed")
		return
	}
	h.Success(c, report)
}

func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}
