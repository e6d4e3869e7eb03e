package sync

import (
	"errors"
	"runtime/debug"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
	"github.com/draheim/zoho-sync/internal/domain/commerce"
)

// FailureKind classifies where in the pipeline a sync attempt died.
type FailureKind string

const (
	FailureOrderLookup FailureKind = "order_lookup"
	FailureAuth        FailureKind = "auth"
	FailureCustomer    FailureKind = "customer"
	FailureItem        FailureKind = "item"
	FailureEstimate    FailureKind = "estimate"
	FailurePanic       FailureKind = "panic"
)

// Result is the outcome of one order sync attempt. The pipeline never
// panics or returns a bare error past its boundary; every failure is folded
// into a Result so callers (HTTP handlers, schedulers) have one shape to
// record.
type Result struct {
	Status   string               `json:"status"`
	OrderID  string               `json:"order_id"`
	Estimate *accounting.Estimate `json:"estimate,omitempty"`

	Kind    FailureKind `json:"kind,omitempty"`
	Message string      `json:"message,omitempty"`
	Trace   string      `json:"trace,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Succeeded reports whether the sync produced an estimate.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

func success(orderID string, estimate *accounting.Estimate) Result {
	return Result{
		Status:   StatusSuccess,
		OrderID:  orderID,
		Estimate: estimate,
	}
}

func failure(orderID string, kind FailureKind, err error) Result {
	return Result{
		Status:  StatusError,
		OrderID: orderID,
		Kind:    classify(kind, err),
		Message: err.Error(),
		Trace:   string(debug.Stack()),
	}
}

// classify upgrades a stage-level kind when the underlying error is more
// specific (a rejected refresh grant is an auth failure no matter which
// stage tripped over it).
func classify(kind FailureKind, err error) FailureKind {
	switch {
	case errors.Is(err, accounting.ErrAuthFailed):
		return FailureAuth
	case errors.Is(err, commerce.ErrOrderNotFound):
		return FailureOrderLookup
	default:
		return kind
	}
}
