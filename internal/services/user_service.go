package services

import (
	"context"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardHistorySize   = 5
	defaultTransactionSize = 50
	maxTransactionSize     = 200
)

// UserService handles user-related read models
type UserService struct {
	ledger          *LedgerService
	transactionRepo repositories.TransactionRepository
	recycling       *RecyclingService
	impact          *ImpactService
	leaderboard     *LeaderboardService
}

// NewUserService creates a new UserService
func NewUserService(
	ledger *LedgerService,
	transactionRepo repositories.TransactionRepository,
	recycling *RecyclingService,
	impact *ImpactService,
	leaderboard *LeaderboardService,
) *UserService {
	return &UserService{
		ledger:          ledger,
		transactionRepo: transactionRepo,
		recycling:       recycling,
		impact:          impact,
		leaderboard:     leaderboard,
	}
}

// GetUserStats returns the user's ledger totals
func (s *UserService) GetUserStats(ctx context.Context, userID primitive.ObjectID) (*models.Stats, error) {
	user, err := s.ledger.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.StatsOf(user), nil
}

// GetDashboard loads stats, impact score, rank and recent activity concurrently
func (s *UserService) GetDashboard(ctx context.Context, userID primitive.ObjectID) (*models.Dashboard, error) {
	d := &models.Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.GetUserStats(gctx, userID)
		d.Stats = stats
		return err
	})
	g.Go(func() error {
		d.ImpactScore = s.impact.GetImpactScore(gctx, userID)
		return nil
	})
	g.Go(func() error {
		rank, err := s.leaderboard.GetUserRank(gctx, userID)
		if err != nil {
			return err
		}
		d.Rank = rank.Rank
		return nil
	})
	g.Go(func() error {
		history, err := s.recycling.GetHistory(gctx, userID, dashboardHistorySize)
		d.RecentActivity = history
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// GetTransactions returns the user's points audit trail, newest first
func (s *UserService) GetTransactions(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = defaultTransactionSize
	}
	if limit > maxTransactionSize {
		limit = maxTransactionSize
	}
	txs, err := s.transactionRepo.FindByUserID(ctx, userID, limit)
	if err != nil {
		return nil, backendErr("list transactions", err)
	}
	return txs, nil
}
