package settlement

import (
	"context"
	"errors"

	"github.com/fatflowers/creditd/internal/models"
	"github.com/fatflowers/creditd/pkg/types"
)

// userOutcome is the explicit per-user result aggregated into run counts.
type userOutcome int

const (
	// outcomeSkipped: guards decided there was nothing to do. Not an error.
	outcomeSkipped userOutcome = iota
	// outcomeSettled: due actions were evaluated without an unexpected error.
	outcomeSettled
	// outcomeFailed: an unexpected error; counted, never aborts the batch.
	outcomeFailed
)

// settleUser evaluates donation and rollover for one user. The two actions
// are independent and may both fire in the same invocation.
func (s *Service) settleUser(ctx context.Context, u *models.User, month string) userOutcome {
	log := s.log.With("job", JobName, "user_id", u.ID, "month", month)

	if u.CreditAccountID == nil || u.CreditAccount == nil || len(u.CreditSettings) == 0 {
		return outcomeSkipped
	}
	if !u.PlanActiveAt(s.now()) {
		return outcomeSkipped
	}

	cfg, err := types.ParseCreditConfig(u.CreditSettings)
	if err != nil {
		// Malformed settings are user data, not a system fault.
		if errors.Is(err, types.ErrMalformedCreditSettings) {
			log.Warnw("unparseable credit settings, skipping user", "err", err)
			return outcomeSkipped
		}
		log.Errorw("credit settings parse failed", "err", err)
		return outcomeFailed
	}

	balance, err := types.ParseAmount(u.CreditAccount.Balance)
	if err != nil {
		log.Errorw("credit balance unreadable", "account_id", *u.CreditAccountID, "err", err)
		return outcomeFailed
	}

	if cfg.DonationDue(month) {
		if err := s.settleDonation(ctx, u, cfg, month); err != nil {
			log.Errorw("donation settlement failed", "err", err)
			return outcomeFailed
		}
	}

	if cfg.RolloverDue(month) {
		if err := s.settleRollover(ctx, u, cfg, balance, month); err != nil {
			log.Errorw("rollover settlement failed", "err", err)
			return outcomeFailed
		}
	}

	return outcomeSettled
}
