package services

import (
	"testing"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/config"
	"github.com/adbeam/recycling-rewards-backend/pkg/jwt"
	pkgmongo "github.com/adbeam/recycling-rewards-backend/pkg/mongodb"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store       *memStore
	clock       time.Time
	ledger      *LedgerService
	vouchers    *VoucherService
	recycling   *RecyclingService
	impact      *ImpactService
	leaderboard *LeaderboardService
	users       *UserService
	auth        *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: newMemStore(),
		clock: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }
	tx := pkgmongo.NoopTransactor{}
	s := f.store

	f.ledger = NewLedgerService(memUsers{s})
	f.ledger.now = now

	f.vouchers = NewVoucherService(memTemplates{s}, memVouchers{s}, memTransactions{s}, f.ledger, tx, config.VoucherConfig{
		DefaultValidDays: 30,
		CodeLength:       12,
		MaxCodeAttempts:  3,
	})
	f.vouchers.now = now

	f.recycling = NewRecyclingService(memActivities{s}, memClaims{s}, memCampus{s}, memTransactions{s}, f.ledger, tx, config.RecyclingConfig{
		DedupeWindowSeconds: 60,
	})
	f.recycling.now = now

	f.impact = NewImpactService(memActivities{s}, f.ledger)

	lb, err := NewLeaderboardService(memUsers{s}, memCampus{s}, config.LeaderboardConfig{
		CacheSize:       16,
		CacheTTLSeconds: 30,
		DefaultLimit:    10,
	})
	require.NoError(t, err)
	lb.now = now
	f.leaderboard = lb

	f.users = NewUserService(f.ledger, memTransactions{s}, f.recycling, f.impact, f.leaderboard)

	f.auth = NewAuthService(memUsers{s}, jwt.NewTokenService("test-secret", "test", time.Hour))
	f.auth.now = now
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}
