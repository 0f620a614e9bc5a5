package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/config"
	"github.com/adbeam/recycling-rewards-backend/internal/impact"
	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

const (
	defaultLocation    = "Campus Scanner"
	maxEventQuantity   = 100
	defaultHistorySize = 20
	maxHistorySize     = 100
)

// RecordEventInput is one recycling submission.
type RecordEventInput struct {
	UserID     primitive.ObjectID
	Material   string
	Quantity   int
	Location   string
	DedupeCode string
}

// RecyclingService records recycling events and credits the ledger for them
type RecyclingService struct {
	activityRepo    repositories.RecyclingActivityRepository
	claimRepo       repositories.ScanClaimRepository
	campusRepo      repositories.CampusRepository
	transactionRepo repositories.TransactionRepository
	ledger          *LedgerService
	tx              repositories.Transactor
	dedupeWindow    time.Duration
	now             func() time.Time
}

// NewRecyclingService creates a new RecyclingService
func NewRecyclingService(
	activityRepo repositories.RecyclingActivityRepository,
	claimRepo repositories.ScanClaimRepository,
	campusRepo repositories.CampusRepository,
	transactionRepo repositories.TransactionRepository,
	ledger *LedgerService,
	tx repositories.Transactor,
	cfg config.RecyclingConfig,
) *RecyclingService {
	return &RecyclingService{
		activityRepo:    activityRepo,
		claimRepo:       claimRepo,
		campusRepo:      campusRepo,
		transactionRepo: transactionRepo,
		ledger:          ledger,
		tx:              tx,
		dedupeWindow:    cfg.DedupeWindow(),
		now:             time.Now,
	}
}

// RecordEvent stores an immutable recycling activity and applies its points
// and CO2 credit to the user. A repeated DedupeCode inside the dedupe window
// fails with ErrDuplicateSubmission and changes nothing.
func (s *RecyclingService) RecordEvent(ctx context.Context, in RecordEventInput) (*models.EventResult, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 || in.Quantity > maxEventQuantity {
		return nil, invalidInput("quantity must be between 1 and %d", maxEventQuantity)
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = defaultLocation
	}
	code := strings.TrimSpace(in.DedupeCode)

	material := impact.ParseMaterial(in.Material)
	points := impact.PointsFor(material, in.Quantity)
	co2 := impact.CO2For(material, in.Quantity)

	var result *models.EventResult
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var undo compensations
		result = nil
		now := s.now()

		if code != "" {
			claimed, err := s.claimRepo.Claim(ctx, code, now, s.dedupeWindow)
			if err != nil {
				return backendErr("claim dedupe code", err)
			}
			if !claimed {
				return ErrDuplicateSubmission
			}
			undo.add("release dedupe claim", func(ctx context.Context) error {
				return s.claimRepo.Release(ctx, code, now)
			})
		}

		activity := &models.RecyclingActivity{
			UserID:     in.UserID,
			Material:   string(material),
			Quantity:   in.Quantity,
			Points:     points,
			CO2Impact:  co2,
			Location:   location,
			DedupeCode: code,
			Verified:   code != "",
			Timestamp:  now,
		}
		if err := s.activityRepo.Create(ctx, activity); err != nil {
			undo.run(ctx)
			return backendErr("create recycling activity", err)
		}
		undo.add("delete activity", func(ctx context.Context) error {
			return s.activityRepo.Delete(ctx, activity.ID)
		})

		user, err := s.ledger.ApplyDelta(ctx, in.UserID, LedgerDelta{Points: points, CO2: co2, Items: in.Quantity})
		if err != nil {
			undo.run(ctx)
			return err
		}

		s.creditCampus(ctx, user, points, in.Quantity, co2)

		activityID := activity.ID
		if err := s.transactionRepo.Create(ctx, &models.Transaction{
			UserID:      in.UserID,
			Type:        models.TransactionRecycling,
			Amount:      points,
			Description: fmt.Sprintf("Recycled %d %s item(s)", in.Quantity, material),
			ActivityID:  &activityID,
			Timestamp:   now,
		}); err != nil {
			slog.Error("Failed to record transaction", "error", err, "userId", in.UserID, "activityId", activityID)
		}

		result = &models.EventResult{
			ActivityID: activityID.Hex(),
			Material:   string(material),
			Points:     points,
			CO2Impact:  co2,
			NewBalance: user.PointsBalance,
			TotalItems: user.TotalItemsRecycled,
			TotalCO2:   impact.Round(user.TotalCO2Saved, 3),
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateSubmission) && !errors.Is(err, ErrNotFound) {
			slog.Error("RecordEvent failed", "error", err, "userId", in.UserID, "material", material)
		}
		return nil, err
	}

	slog.Info("Recycling event recorded", "userId", in.UserID, "material", material, "quantity", in.Quantity, "points", points)
	return result, nil
}

// creditCampus adds the event to the user's university and residence hall
// totals. These aggregates are advisory, so failures are only logged.
func (s *RecyclingService) creditCampus(ctx context.Context, user *models.User, points, items int, co2 float64) {
	if user.University != "" {
		if err := s.campusRepo.IncrementUniversity(ctx, user.University, points, items, co2); err != nil {
			slog.Warn("Failed to update university totals", "error", err, "university", user.University)
		}
	}
	if user.ResidenceHall != "" {
		if err := s.campusRepo.IncrementResidenceHall(ctx, user.ResidenceHall, points, items); err != nil {
			slog.Warn("Failed to update residence hall totals", "error", err, "residenceHall", user.ResidenceHall)
		}
	}
}

// GetHistory returns the user's most recent activities, newest first
func (s *RecyclingService) GetHistory(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.RecyclingActivity, error) {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	if limit > maxHistorySize {
		limit = maxHistorySize
	}
	activities, err := s.activityRepo.FindByUserID(ctx, userID, limit, false)
	if err != nil {
		return nil, backendErr("list recycling history", err)
	}
	return activities, nil
}
