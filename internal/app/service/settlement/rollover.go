package settlement

import (
	"context"
	"math/big"

	"github.com/fatflowers/creditd/internal/models"
	"github.com/fatflowers/creditd/pkg/metrics"
	"github.com/fatflowers/creditd/pkg/types"
)

// settleRollover expires credit in excess of maxMonthsToKeep months of the
// premium allotment. Unlike donation, the no-excess path stamps the marker
// immediately: the cap is static, so re-checking before next month gains
// nothing.
func (s *Service) settleRollover(ctx context.Context, u *models.User, cfg *types.CreditConfig, balance *big.Int, month string) error {
	log := s.log.With("job", JobName, "user_id", u.ID, "month", month)

	maxAllowed := new(big.Int).Mul(
		big.NewInt(int64(cfg.Rollover.MaxMonthsToKeep)),
		big.NewInt(s.cfg.Job.PremiumMonthlyAllotment),
	)

	if balance.Cmp(maxAllowed) <= 0 {
		s.stampProcessedMonth(ctx, u.ID, types.CreditSettingsRollover, month)
		return nil
	}

	excess := new(big.Int).Sub(balance, maxAllowed)
	ev := newExpireEvent(*u.CreditAccountID, u.ID, excess, cfg.Rollover.MaxMonthsToKeep, month)
	if err := s.bus.Publish(ctx, ev); err != nil {
		log.Errorw("expire event publish failed, will retry next run",
			"event_id", ev.ID, "amount", excess.String(), "err", err)
		return nil
	}
	metrics.EventsPublished.WithLabelValues(string(types.BillingEntryTypeExpire)).Inc()

	s.stampProcessedMonth(ctx, u.ID, types.CreditSettingsRollover, month)
	return nil
}
