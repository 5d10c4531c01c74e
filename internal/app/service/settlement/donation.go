package settlement

import (
	"context"
	"fmt"
	"math/big"

	"github.com/fatflowers/creditd/internal/models"
	"github.com/fatflowers/creditd/pkg/metrics"
	"github.com/fatflowers/creditd/pkg/types"
)

var oneHundred = big.NewInt(100)

// donationAmount computes floor(free * percentage / 100) in arbitrary
// precision. No floating point anywhere: rounding drift at scale would leak
// credit.
func donationAmount(free *big.Int, percentage int) *big.Int {
	amt := new(big.Int).Mul(free, big.NewInt(int64(percentage)))
	return amt.Quo(amt, oneHundred)
}

// settleDonation donates a percentage of the user's free (non-purchased)
// credit to the platform. The donation marker is stamped only after a
// successful publish; the zero-balance and zero-amount paths deliberately
// leave it unset so the user is re-evaluated next run, because free balance
// can change intra-month.
func (s *Service) settleDonation(ctx context.Context, u *models.User, cfg *types.CreditConfig, month string) error {
	log := s.log.With("job", JobName, "user_id", u.ID, "month", month)

	free, err := s.store.FreeCreditBalance(ctx, *u.CreditAccountID)
	if err != nil {
		return fmt.Errorf("free credit balance: %w", err)
	}
	if free.Sign() <= 0 {
		log.Debugw("no free credit to donate", "free_balance", free.String())
		return nil
	}

	amount := donationAmount(free, cfg.Donation.Percentage)
	if types.ExceedsSafeInteger(amount) {
		log.Warnw("donation amount exceeds float64 safe integer range",
			"amount", amount.String(), "free_balance", free.String())
	}
	if amount.Sign() == 0 {
		log.Debugw("donation rounds to zero",
			"free_balance", free.String(), "percentage", cfg.Donation.Percentage)
		return nil
	}

	ev := newDonationEvent(*u.CreditAccountID, u.ID, amount, cfg.Donation.Percentage, month)
	if err := s.bus.Publish(ctx, ev); err != nil {
		// Marker untouched: the donation is retried on the next run.
		log.Errorw("donation event publish failed, will retry next run",
			"event_id", ev.ID, "amount", amount.String(), "err", err)
		return nil
	}
	metrics.EventsPublished.WithLabelValues(string(types.BillingEntryTypeDonationGiven)).Inc()

	s.stampProcessedMonth(ctx, u.ID, types.CreditSettingsDonation, month)
	return nil
}
