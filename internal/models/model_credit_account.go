package models

import "time"

// CreditAccount holds a user's current credit balance.
// Balance is a decimal integer string (credit units) so arbitrary-precision
// values pass through untouched; it is mutated only by the downstream ledger
// consumer reacting to published billing events, never by this service.
type CreditAccount struct {
	ID        string    `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Balance   string    `gorm:"column:balance;type:numeric(40,0);not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CreditAccount) TableName() string {
	return "credit_account"
}
