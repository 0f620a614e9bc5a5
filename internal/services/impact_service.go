package services

import (
	"context"

	"github.com/adbeam/recycling-rewards-backend/internal/impact"
	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// ImpactService scores users' recycling histories
type ImpactService struct {
	activityRepo repositories.RecyclingActivityRepository
	ledger       *LedgerService
}

// NewImpactService creates a new ImpactService
func NewImpactService(activityRepo repositories.RecyclingActivityRepository, ledger *LedgerService) *ImpactService {
	return &ImpactService{activityRepo: activityRepo, ledger: ledger}
}

func (s *ImpactService) breakdown(ctx context.Context, userID primitive.ObjectID) (impact.Breakdown, error) {
	activities, err := s.activityRepo.FindByUserID(ctx, userID, 0, true)
	if err != nil {
		return impact.Breakdown{}, err
	}
	events := make([]impact.Event, 0, len(activities))
	for _, a := range activities {
		events = append(events, impact.Event{
			Material:  impact.ParseMaterial(a.Material),
			Quantity:  a.Quantity,
			Timestamp: a.Timestamp,
		})
	}
	return impact.Score(events), nil
}

// GetImpactScore returns the user's impact score in [0, 100]. It never
// fails: storage errors are logged and score 0.
func (s *ImpactService) GetImpactScore(ctx context.Context, userID primitive.ObjectID) float64 {
	b, err := s.breakdown(ctx, userID)
	if err != nil {
		slog.Error("GetImpactScore: failed to load recycling history", "error", err, "userId", userID)
		return 0
	}
	return b.Score
}

// GetEnvironmentalStats summarises the user's CO2 savings by material
func (s *ImpactService) GetEnvironmentalStats(ctx context.Context, userID primitive.ObjectID) (*models.EnvironmentalStats, error) {
	user, err := s.ledger.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	b, err := s.breakdown(ctx, userID)
	if err != nil {
		return nil, backendErr("load recycling history", err)
	}

	perMaterial := make(map[string]float64, len(b.PerMaterialCO2))
	for m, v := range b.PerMaterialCO2 {
		perMaterial[string(m)] = v
	}
	return &models.EnvironmentalStats{
		TotalCO2Saved:     impact.Round2(user.TotalCO2Saved),
		ImpactScore:       b.Score,
		MaterialBreakdown: perMaterial,
		TotalItems:        user.TotalItemsRecycled,
		DaysActive:        b.DaysActive,
	}, nil
}
