package services

import (
	"context"
	"errors"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// LedgerDelta is a change to a user's running totals.
type LedgerDelta struct {
	// Points is added to the balance. Negative values are spends and are
	// rejected if they would take the balance below zero.
	Points int
	CO2    float64
	Items  int
	// Refund marks a positive Points value as returning an earlier spend
	// rather than new earnings.
	Refund bool
}

// LedgerService owns every mutation of a user's points and totals.
type LedgerService struct {
	userRepo repositories.UserRepository
	now      func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(userRepo repositories.UserRepository) *LedgerService {
	return &LedgerService{userRepo: userRepo, now: time.Now}
}

// Account returns the user's current ledger state.
func (s *LedgerService) Account(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return findUser(ctx, s.userRepo, userID)
}

func findUser(ctx context.Context, userRepo repositories.UserRepository, userID primitive.ObjectID) (*models.User, error) {
	user, err := userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, backendErr("find user", err)
	}
	return user, nil
}

// ApplyDelta applies d to the user in a single conditional update and
// returns the updated user.
func (s *LedgerService) ApplyDelta(ctx context.Context, userID primitive.ObjectID, d LedgerDelta) (*models.User, error) {
	if d.CO2 < 0 || d.Items < 0 {
		return nil, invalidInput("co2 and item deltas must not be negative")
	}
	if d.Refund && d.Points < 0 {
		return nil, invalidInput("refund must be positive")
	}

	inc := repositories.UserIncrements{
		PointsBalance:      d.Points,
		TotalItemsRecycled: d.Items,
		TotalCO2Saved:      d.CO2,
	}
	minBalance := 0
	switch {
	case d.Points < 0:
		inc.TotalPointsSpent = -d.Points
		minBalance = -d.Points
	case d.Refund:
		inc.TotalPointsSpent = -d.Points
	default:
		inc.TotalPointsEarned = d.Points
	}
	if d.Items > 0 {
		inc.ActivityAt = s.now()
	}

	user, err := s.userRepo.ApplyIncrements(ctx, userID, inc, minBalance)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repositories.ErrConditionNotMet):
			return nil, ErrInsufficientBalance
		default:
			slog.Error("ApplyDelta: failed to update user totals", "error", err, "userId", userID, "points", d.Points)
			return nil, backendErr("apply ledger delta", err)
		}
	}
	return user, nil
}
