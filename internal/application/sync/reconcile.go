package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
)

// msgNoRetainerInvoices is the soft error recorded when an accepted
// estimate has no linked retainer invoice yet.
const msgNoRetainerInvoices = "No retainer invoices found for this estimate."

// EstimateOutcome records what reconciliation did for one accepted
// estimate.
type EstimateOutcome struct {
	EstimateID     string `json:"estimate_id"`
	EstimateNumber string `json:"estimate_number"`
	Updated        bool   `json:"updated"`
	Error          string `json:"error,omitempty"`
}

// ReconcileReport is the outcome of one reconciliation pass.
type ReconcileReport struct {
	Estimates []EstimateOutcome `json:"estimates"`
	Updated   int               `json:"updated"`
}

// ReconcileService walks all accepted estimates and attaches the payment
// gateway options to each one's drawn retainer invoice. Re-running after a
// successful pass is a no-op: a patched invoice is no longer in "drawn"
// status.
type ReconcileService struct {
	gateway accounting.Gateway
	logger  *zap.Logger
}

func NewReconcileService(gateway accounting.Gateway, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{gateway: gateway, logger: logger}
}

// Run performs one reconciliation pass. Missing retainer invoices are soft
// errors recorded per estimate; a failing gateway call aborts the pass.
func (s *ReconcileService) Run(ctx context.Context) (*ReconcileReport, error) {
	estimates, err := s.gateway.ListAcceptedEstimates(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Estimates: make([]EstimateOutcome, 0, len(estimates))}
	for _, estimate := range estimates {
		outcome, err := s.reconcileEstimate(ctx, estimate)
		if err != nil {
			return nil, err
		}
		if outcome.Updated {
			report.Updated++
		}
		report.Estimates = append(report.Estimates, outcome)
	}

	s.logger.Info("Reconciliation pass completed",
		zap.Int("accepted_estimates", len(estimates)),
		zap.Int("updated", report.Updated),
	)
	return report, nil
}

func (s *ReconcileService) reconcileEstimate(ctx context.Context, estimate accounting.Estimate) (EstimateOutcome, error) {
	outcome := EstimateOutcome{
		EstimateID:     estimate.EstimateID,
		EstimateNumber: estimate.EstimateNumber,
	}

	invoices, err := s.gateway.ListRetainerInvoices(ctx, estimate.EstimateID)
	if err != nil {
		return outcome, err
	}
	if len(invoices) == 0 {
		outcome.Error = msgNoRetainerInvoices
		return outcome, nil
	}

	// Only the first linked invoice is considered; estimates here carry at
	// most one retainer invoice.
	invoice := invoices[0]
	if invoice.Status != accounting.RetainerInvoiceStatusDrawn {
		s.logger.Debug("Retainer invoice not in drawn status, skipping",
			zap.String("estimate_id", estimate.EstimateID),
			zap.String("status", invoice.Status),
		)
		return outcome, nil
	}

	if err := s.gateway.UpdateRetainerInvoicePaymentOptions(ctx, &invoice); err != nil {
		return outcome, err
	}
	outcome.Updated = true
	return outcome, nil
}
