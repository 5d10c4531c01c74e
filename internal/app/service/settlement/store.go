package settlement

import (
	"context"
	"fmt"
	"math/big"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fatflowers/creditd/internal/models"
	"github.com/fatflowers/creditd/pkg/types"
)

// UserStore is the data-access surface the settlement job runs against.
// Split out so tests can drive the job with a fake.
type UserStore interface {
	// StreamEligibleUsers yields pages of users that are not bots, have the
	// premium plan enabled, and have a credit account. fn returning an error
	// aborts the stream.
	StreamEligibleUsers(ctx context.Context, pageSize int, fn func(users []*models.User) error) error
	// FreeCreditBalance returns the non-purchased credit balance of an
	// account; only this portion is donation-eligible.
	FreeCreditBalance(ctx context.Context, accountID string) (*big.Int, error)
	// StampProcessedMonth performs one transactional read-modify-write of the
	// user's credit settings, setting lastProcessedMonth on one sub-config.
	StampProcessedMonth(ctx context.Context, userID string, kind types.CreditSettingsKind, month string) error
}

type gormUserStore struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewUserStore(db *gorm.DB, log *zap.SugaredLogger) UserStore {
	return &gormUserStore{db: db, log: log}
}

func (s *gormUserStore) StreamEligibleUsers(ctx context.Context, pageSize int, fn func(users []*models.User) error) error {
	var page []*models.User
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "is_bot", "plan_enabled", "plan_activated_at", "plan_expires_at", "credit_settings", "credit_account_id").
		Where("is_bot = ?", false).
		Where("plan_enabled = ?", true).
		Where("credit_account_id IS NOT NULL").
		Preload("CreditAccount").
		FindInBatches(&page, pageSize, func(tx *gorm.DB, batch int) error {
			s.log.Debugw("settlement user page",
				"batch", batch,
				"user_ids", lo.Map(page, func(u *models.User, _ int) string { return u.ID }),
			)
			return fn(page)
		})
	if res.Error != nil {
		return fmt.Errorf("stream eligible users: %w", res.Error)
	}
	return nil
}

func (s *gormUserStore) FreeCreditBalance(ctx context.Context, accountID string) (*big.Int, error) {
	row := s.db.WithContext(ctx).
		Model(&models.CreditLedgerEntry{}).
		Select("COALESCE(SUM(delta), 0)").
		Where("account_id = ?", accountID).
		Where("purchased = ?", false).
		Row()

	var raw string
	if err := row.Scan(&raw); err != nil {
		return nil, fmt.Errorf("free credit balance for account %s: %w", accountID, err)
	}
	v, err := types.ParseAmount(raw)
	if err != nil {
		return nil, fmt.Errorf("free credit balance for account %s: %w", accountID, err)
	}
	return v, nil
}

func (s *gormUserStore) StampProcessedMonth(ctx context.Context, userID string, kind types.CreditSettingsKind, month string) error {
	// Read and write inside one transaction so a concurrent settings change
	// by the user is not clobbered with a stale blob.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Select("id", "credit_settings").First(&u, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		cfg, err := types.ParseCreditConfig(u.CreditSettings)
		if err != nil {
			return err
		}
		if err := cfg.SetProcessedMonth(kind, month); err != nil {
			return err
		}
		blob, err := cfg.Serialize()
		if err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("credit_settings", datatypes.JSON(blob)).Error
	})
	if err != nil {
		return fmt.Errorf("stamp %s processed month for user %s: %w", kind, userID, err)
	}
	return nil
}
