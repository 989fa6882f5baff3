package trading

import "microcap-trader/internal/models"

// Approver decides the fate of AI recommendations before execution. In
// interactive mode this is the operator at the terminal; in unattended
// mode an auto-approver passes everything through.
type Approver interface {
	Review(recs []models.Recommendation) []models.PendingRecommendation
}

// AutoApprover approves every recommendation. Used when the cycle runs
// unattended and the confidence gate is the only filter.
type AutoApprover struct{}

// Review marks all recommendations approved.
func (AutoApprover) Review(recs []models.Recommendation) []models.PendingRecommendation {
	pending := make([]models.PendingRecommendation, len(recs))
	for i, rec := range recs {
		pending[i] = models.PendingRecommendation{
			Recommendation: rec,
			State:          models.ApprovalApproved,
		}
	}
	return pending
}

// Approved filters a reviewed batch down to the approved items.
func Approved(pending []models.PendingRecommendation) []models.Recommendation {
	var out []models.Recommendation
	for _, p := range pending {
		if p.State == models.ApprovalApproved {
			out = append(out, p.Recommendation)
		}
	}
	return out
}
