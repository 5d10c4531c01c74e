package settlement

import (
	"fmt"
	"math/big"

	"github.com/fatflowers/creditd/pkg/tool"
	"github.com/fatflowers/creditd/pkg/types"
)

func newDonationEvent(accountID, userID string, amount *big.Int, percentage int, month string) *types.BillingEvent {
	return &types.BillingEvent{
		Type:      types.BillingEventType,
		ID:        tool.GenerateUUIDV7(),
		AccountID: accountID,
		Delta:     new(big.Int).Neg(amount).String(),
		EntryType: types.BillingEntryTypeDonationGiven,
		Source:    types.BillingEventSourceScheduler,
		Metadata: map[string]any{
			"reason":     fmt.Sprintf("monthly donation of %d%% of unused free credit", percentage),
			"job":        JobName,
			"user_id":    userID,
			"percentage": percentage,
			"month":      month,
		},
	}
}

func newExpireEvent(accountID, userID string, excess *big.Int, maxMonthsToKeep int, month string) *types.BillingEvent {
	return &types.BillingEvent{
		Type:      types.BillingEventType,
		ID:        tool.GenerateUUIDV7(),
		AccountID: accountID,
		Delta:     new(big.Int).Neg(excess).String(),
		EntryType: types.BillingEntryTypeExpire,
		Source:    types.BillingEventSourceScheduler,
		Metadata: map[string]any{
			"reason":             fmt.Sprintf("credit above %d months of premium allotment expired", maxMonthsToKeep),
			"job":                JobName,
			"user_id":            userID,
			"max_months_to_keep": maxMonthsToKeep,
			"month":              month,
		},
	}
}
