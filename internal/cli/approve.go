package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"microcap-trader/internal/models"
)

// TerminalApprover prompts the operator for a yes/no decision on each
// AI recommendation before it reaches the executor.
type TerminalApprover struct {
	cmd *cobra.Command
	out *Output
}

// NewTerminalApprover creates an approver reading from the command's
// stdin.
func NewTerminalApprover(cmd *cobra.Command, out *Output) *TerminalApprover {
	return &TerminalApprover{cmd: cmd, out: out}
}

// Review prompts for each recommendation in turn. Anything other than
// an explicit yes is a rejection.
func (a *TerminalApprover) Review(recs []models.Recommendation) []models.PendingRecommendation {
	reader := bufio.NewReader(a.cmd.InOrStdin())
	pending := make([]models.PendingRecommendation, len(recs))

	for i, rec := range recs {
		pending[i] = models.PendingRecommendation{Recommendation: rec, State: models.ApprovalPending}

		a.out.Println()
		a.out.Bold("Recommendation %d/%d from %s", i+1, len(recs), rec.Provider)
		a.out.Printf("  %s %s", strings.ToUpper(string(rec.Action)), rec.Ticker)
		if rec.Shares > 0 {
			a.out.Printf("  %g shares @ $%.2f", rec.Shares, rec.Price)
		}
		if rec.StopLoss != nil {
			a.out.Printf("  stop $%.2f", *rec.StopLoss)
		}
		a.out.Println()
		a.out.Printf("  confidence %.2f: %s\n", rec.Confidence, rec.Reasoning)
		a.out.Printf("Approve? [y/N] ")

		line, err := reader.ReadString('\n')
		if err != nil {
			pending[i].State = models.ApprovalRejected
			continue
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "y" || answer == "yes" {
			pending[i].State = models.ApprovalApproved
			a.out.Success("  approved")
		} else {
			pending[i].State = models.ApprovalRejected
			a.out.Warning("  rejected")
		}
	}

	return pending
}
