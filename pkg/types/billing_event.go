package types

// BillingEntryType classifies a ledger entry carried by a BillingEvent.
type BillingEntryType string

const (
	BillingEntryTypeDonationGiven BillingEntryType = "DonationGiven"
	BillingEntryTypeExpire        BillingEntryType = "Expire"
)

// BillingEventSource identifies which system produced a billing event.
type BillingEventSource string

const (
	BillingEventSourceScheduler BillingEventSource = "Scheduler"
)

// BillingEventType is the type tag of ledger entry events on the bus.
const BillingEventType = "billing.ledger.entry"

// BillingEvent is the append-only ledger message emitted to the billing bus.
// The credit account balance is mutated downstream by the ledger consumer;
// this service never writes balances directly.
type BillingEvent struct {
	Type      string             `json:"type"`
	ID        string             `json:"id"`
	AccountID string             `json:"account_id"`
	// Delta is a signed decimal integer string; negative for outgoing credit.
	// String-encoded so consumers never round it through a float.
	Delta     string             `json:"delta"`
	EntryType BillingEntryType   `json:"entry_type"`
	Source    BillingEventSource `json:"source"`
	Metadata  map[string]any     `json:"metadata"`
}
