package settlement

import (
	"context"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/creditd/internal/models"
	cfgpkg "github.com/fatflowers/creditd/pkg/config"
	"github.com/fatflowers/creditd/pkg/types"
)

type stampCall struct {
	userID string
	kind   types.CreditSettingsKind
	month  string
}

type fakeStore struct {
	users     []*models.User
	freeBal   map[string]*big.Int
	freeErr   map[string]error
	stampErrs map[string][]error
	stamps    []stampCall
	streamErr error
}

func newFakeStore(users ...*models.User) *fakeStore {
	return &fakeStore{
		users:     users,
		freeBal:   map[string]*big.Int{},
		freeErr:   map[string]error{},
		stampErrs: map[string][]error{},
	}
}

func (f *fakeStore) StreamEligibleUsers(_ context.Context, pageSize int, fn func([]*models.User) error) error {
	if f.streamErr != nil {
		return f.streamErr
	}
	for start := 0; start < len(f.users); start += pageSize {
		end := min(start+pageSize, len(f.users))
		if err := fn(f.users[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) FreeCreditBalance(_ context.Context, accountID string) (*big.Int, error) {
	if err := f.freeErr[accountID]; err != nil {
		return nil, err
	}
	if v, ok := f.freeBal[accountID]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeStore) StampProcessedMonth(_ context.Context, userID string, kind types.CreditSettingsKind, month string) error {
	if q := f.stampErrs[userID]; len(q) > 0 {
		err := q[0]
		f.stampErrs[userID] = q[1:]
		if err != nil {
			return err
		}
	}
	f.stamps = append(f.stamps, stampCall{userID: userID, kind: kind, month: month})
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	return nil
}

func (c *fakeCache) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return false, c.setErr
	}
	if _, exists := c.data[key]; exists {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []*types.BillingEvent
	err    error
}

func (b *fakeBus) Publish(_ context.Context, ev *types.BillingEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, ev)
	return nil
}

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

const testMonth = "2026-08"

func testJobConfig() *cfgpkg.Config {
	return &cfgpkg.Config{
		Job: cfgpkg.JobConfig{
			PageSize:                100,
			MarkerTTLDays:           45,
			PremiumMonthlyAllotment: 3000,
			RunLockTTLMinutes:       360,
		},
	}
}

func newTestService(store *fakeStore, c *fakeCache, b *fakeBus) *Service {
	s := NewService(testJobConfig(), zap.NewNop().Sugar(), store, c, b)
	s.now = func() time.Time { return testNow }
	s.sleep = func(time.Duration) {}
	return s
}

func testUser(id, settings string) *models.User {
	acct := id + "-acct"
	activated := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u := &models.User{
		ID:              id,
		PlanEnabled:     true,
		PlanActivatedAt: &activated,
		CreditAccountID: &acct,
		CreditAccount:   &models.CreditAccount{ID: acct, Balance: "0"},
	}
	if settings != "" {
		u.CreditSettings = datatypes.JSON(settings)
	}
	return u
}
