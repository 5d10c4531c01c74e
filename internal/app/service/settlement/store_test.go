package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/creditd/internal/models"
	"github.com/fatflowers/creditd/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.CreditAccount{}, &models.CreditLedgerEntry{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string, mutate func(*models.User)) *models.User {
	t.Helper()
	acctID := id + "-acct"
	require.NoError(t, db.Create(&models.CreditAccount{ID: acctID, Balance: "0"}).Error)

	activated := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u := &models.User{
		ID:              id,
		PlanEnabled:     true,
		PlanActivatedAt: &activated,
		CreditSettings:  datatypes.JSON(`{"donation": {"enabled": true, "percentage": 10}}`),
		CreditAccountID: &acctID,
	}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestGormUserStore_StreamEligibleUsers(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db, zap.NewNop().Sugar())

	seedUser(t, db, "ok")
	seedUser(t, db, "bot", func(u *models.User) { u.IsBot = true })
	seedUser(t, db, "noplan", func(u *models.User) { u.PlanEnabled = false })
	seedUser(t, db, "noacct", func(u *models.User) {
		u.CreditAccountID = nil
	})

	var got []string
	err := store.StreamEligibleUsers(context.Background(), 100, func(users []*models.User) error {
		for _, u := range users {
			got = append(got, u.ID)
			require.NotNil(t, u.CreditAccount, "account must be preloaded")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ok"}, got)
}

func TestGormUserStore_StreamPagination(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db, zap.NewNop().Sugar())

	for i := 0; i < 5; i++ {
		seedUser(t, db, fmt.Sprintf("u%d", i))
	}

	var pages []int
	err := store.StreamEligibleUsers(context.Background(), 2, func(users []*models.User) error {
		pages = append(pages, len(users))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{2, 2, 1}, pages)
}

func TestGormUserStore_StreamCallbackErrorAborts(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db, zap.NewNop().Sugar())

	for i := 0; i < 4; i++ {
		seedUser(t, db, fmt.Sprintf("u%d", i))
	}

	calls := 0
	err := store.StreamEligibleUsers(context.Background(), 2, func([]*models.User) error {
		calls++
		return fmt.Errorf("stop")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestGormUserStore_FreeCreditBalance(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db, zap.NewNop().Sugar())

	entries := []models.CreditLedgerEntry{
		{ID: "e1", AccountID: "a1", Delta: "500", EntryType: "Grant", Purchased: false},
		{ID: "e2", AccountID: "a1", Delta: "200", EntryType: "Grant", Purchased: false},
		{ID: "e3", AccountID: "a1", Delta: "-100", EntryType: "Spend", Purchased: false},
		{ID: "e4", AccountID: "a1", Delta: "1000", EntryType: "Purchase", Purchased: true},
		{ID: "e5", AccountID: "other", Delta: "9999", EntryType: "Grant", Purchased: false},
	}
	for _, e := range entries {
		require.NoError(t, db.Create(&e).Error)
	}

	free, err := store.FreeCreditBalance(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, "600", free.String())

	// account with no ledger rows sums to zero
	free, err = store.FreeCreditBalance(context.Background(), "empty")
	require.NoError(t, err)
	require.Zero(t, free.Sign())
}

func TestGormUserStore_StampProcessedMonth(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db, zap.NewNop().Sugar())

	seedUser(t, db, "u1", func(u *models.User) {
		u.CreditSettings = datatypes.JSON(`{
			"donation": {"enabled": true, "percentage": 10, "note": "keep me"},
			"rollover": {"enabled": true, "maxMonthsToKeep": 2, "lastProcessedMonth": "2026-07"}
		}`)
	})

	err := store.StampProcessedMonth(context.Background(), "u1", types.CreditSettingsDonation, "2026-08")
	require.NoError(t, err)

	var u models.User
	require.NoError(t, db.First(&u, "id = ?", "u1").Error)

	var m map[string]map[string]any
	require.NoError(t, json.Unmarshal(u.CreditSettings, &m))
	require.Equal(t, "2026-08", m["donation"]["lastProcessedMonth"])
	require.Equal(t, "keep me", m["donation"]["note"])
	require.Equal(t, float64(10), m["donation"]["percentage"])
	// the other sub-config is untouched
	require.Equal(t, "2026-07", m["rollover"]["lastProcessedMonth"])
}

func TestGormUserStore_StampMissingUser(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db, zap.NewNop().Sugar())

	err := store.StampProcessedMonth(context.Background(), "ghost", types.CreditSettingsDonation, "2026-08")
	require.Error(t, err)
}

func TestGormUserStore_StampMalformedSettings(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db, zap.NewNop().Sugar())

	seedUser(t, db, "u1", func(u *models.User) {
		u.CreditSettings = datatypes.JSON(`"oops"`)
	})

	err := store.StampProcessedMonth(context.Background(), "u1", types.CreditSettingsRollover, "2026-08")
	require.ErrorIs(t, err, types.ErrMalformedCreditSettings)
}
