package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is the projection of a platform user this service reads. Accounts are
// created and destroyed elsewhere; the only column this service ever writes
// back is CreditSettings (and only its lastProcessedMonth markers).
type User struct {
	ID    string `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	IsBot bool   `gorm:"column:is_bot;not null;default:false" json:"is_bot"`
	// PlanEnabled mirrors the premium plan toggle; activation/expiry are
	// re-checked in code because the window can close mid-run.
	PlanEnabled     bool       `gorm:"column:plan_enabled;not null;default:false" json:"plan_enabled"`
	PlanActivatedAt *time.Time `gorm:"column:plan_activated_at;default:null" json:"plan_activated_at"`
	PlanExpiresAt   *time.Time `gorm:"column:plan_expires_at;default:null" json:"plan_expires_at"`
	// CreditSettings is an opaque user-owned JSON blob; see types.CreditConfig.
	CreditSettings  datatypes.JSON `gorm:"column:credit_settings;type:jsonb;default:null" json:"credit_settings"`
	CreditAccountID *string        `gorm:"column:credit_account_id;type:varchar(64);default:null;index" json:"credit_account_id"`
	CreditAccount   *CreditAccount `gorm:"foreignKey:CreditAccountID" json:"credit_account,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (User) TableName() string {
	return "platform_user"
}

// PlanActiveAt reports whether the user's premium plan is active at ts.
func (u *User) PlanActiveAt(ts time.Time) bool {
	if u == nil || !u.PlanEnabled || u.PlanActivatedAt == nil {
		return false
	}
	if u.PlanExpiresAt != nil && u.PlanExpiresAt.Before(ts) {
		return false
	}
	return true
}
