package settlement

import (
	"context"
	"time"

	"github.com/fatflowers/creditd/pkg/types"
)

const (
	stampAttempts    = 3
	stampBackoffBase = 100 * time.Millisecond
)

// stampProcessedMonth retries the transactional settings update and swallows
// the final error. By the time this runs the billing event is already on the
// bus; a stale marker only causes a redundant re-evaluation next month, which
// the due-check makes safe. It must never fail the settlement itself.
func (s *Service) stampProcessedMonth(ctx context.Context, userID string, kind types.CreditSettingsKind, month string) {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.store.StampProcessedMonth(ctx, userID, kind, month)
		if err == nil {
			return
		}
		if attempt+1 >= stampAttempts {
			break
		}
		s.sleep(stampBackoffBase << attempt)
	}
	s.log.Errorw("settings update failed after retries, marker left stale",
		"job", JobName,
		"user_id", userID,
		"settings", string(kind),
		"month", month,
		"err", err,
	)
}
