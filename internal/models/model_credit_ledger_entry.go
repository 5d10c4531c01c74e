package models

import "time"

// CreditLedgerEntry is one append-only balance movement on a credit account.
// Purchased distinguishes paid credit from promotional/free credit; summing
// deltas with purchased=false yields the donation-eligible free balance.
type CreditLedgerEntry struct {
	ID        string    `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	AccountID string    `gorm:"column:account_id;type:varchar(64);not null;index" json:"account_id"`
	Delta     string    `gorm:"column:delta;type:numeric(40,0);not null" json:"delta"`
	EntryType string    `gorm:"column:entry_type;type:varchar(64);not null" json:"entry_type"`
	Purchased bool      `gorm:"column:purchased;not null;default:false" json:"purchased"`
	CreatedAt time.Time `json:"created_at"`
}

func (CreditLedgerEntry) TableName() string {
	return "credit_ledger_entry"
}
