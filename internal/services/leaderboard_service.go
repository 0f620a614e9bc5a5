package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/config"
	"github.com/adbeam/recycling-rewards-backend/internal/impact"
	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Leaderboard kinds
const (
	BoardIndividuals  = "individuals"
	BoardUniversities = "universities"
	BoardResidences   = "residences"
)

// Leaderboard periods
const (
	PeriodAll      = "all"
	PeriodWeek     = "week"
	PeriodMonth    = "month"
	PeriodSemester = "semester"
)

const (
	maxLeaderboardSize = 500
	searchPoolSize     = 500
)

type snapshot struct {
	entries []models.LeaderboardEntry
	takenAt time.Time
}

// LeaderboardService serves ranked views of users and campuses. Results are
// snapshots cached for a short TTL, so they may lag the ledger slightly.
type LeaderboardService struct {
	userRepo     repositories.UserRepository
	campusRepo   repositories.CampusRepository
	cache        *lru.Cache
	ttl          time.Duration
	defaultLimit int
	now          func() time.Time
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(userRepo repositories.UserRepository, campusRepo repositories.CampusRepository, cfg config.LeaderboardConfig) (*LeaderboardService, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create leaderboard cache: %w", err)
	}
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = 50
	}
	return &LeaderboardService{
		userRepo:     userRepo,
		campusRepo:   campusRepo,
		cache:        cache,
		ttl:          cfg.CacheTTL(),
		defaultLimit: limit,
		now:          time.Now,
	}, nil
}

func (s *LeaderboardService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > maxLeaderboardSize {
		return maxLeaderboardSize
	}
	return limit
}

// cached returns the snapshot under key, loading it when missing or stale.
func (s *LeaderboardService) cached(key string, load func() ([]models.LeaderboardEntry, error)) ([]models.LeaderboardEntry, error) {
	now := s.now()
	if v, ok := s.cache.Get(key); ok {
		snap := v.(*snapshot)
		if now.Sub(snap.takenAt) < s.ttl {
			return snap.entries, nil
		}
	}
	entries, err := load()
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, &snapshot{entries: entries, takenAt: now})
	return entries, nil
}

// periodStart maps a period name to the earliest lastActivityDate it includes.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case PeriodAll:
		return time.Time{}, nil
	case PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonth:
		return now.AddDate(0, -1, 0), nil
	case PeriodSemester:
		return now.AddDate(0, -4, 0), nil
	default:
		return time.Time{}, invalidInput("unknown period %q", period)
	}
}

func displayName(u *models.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Individuals ranks users by points balance, optionally within one university
// and among users active in the given period.
func (s *LeaderboardService) Individuals(ctx context.Context, university, period string, limit int) ([]models.LeaderboardEntry, error) {
	limit = s.clampLimit(limit)
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = PeriodAll
	}
	since, err := periodStart(period, s.now())
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s|%s|%s|%d", BoardIndividuals, university, period, limit)

	return s.cached(key, func() ([]models.LeaderboardEntry, error) {
		users, err := s.userRepo.FindTop(ctx, repositories.LeaderboardFilter{
			University:  university,
			ActiveSince: since,
			Limit:       limit,
		})
		if err != nil {
			return nil, backendErr("load individual leaderboard", err)
		}
		entries := make([]models.LeaderboardEntry, 0, len(users))
		for i, u := range users {
			entries = append(entries, models.LeaderboardEntry{
				Rank:          i + 1,
				ID:            u.ID.Hex(),
				Name:          displayName(u),
				University:    u.University,
				Points:        u.PointsBalance,
				ItemsRecycled: u.TotalItemsRecycled,
				CO2Saved:      impact.Round2(u.TotalCO2Saved),
			})
		}
		return entries, nil
	})
}

// Universities ranks universities by total points
func (s *LeaderboardService) Universities(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	limit = s.clampLimit(limit)
	key := fmt.Sprintf("%s|%d", BoardUniversities, limit)

	return s.cached(key, func() ([]models.LeaderboardEntry, error) {
		unis, err := s.campusRepo.TopUniversities(ctx, limit)
		if err != nil {
			return nil, backendErr("load university leaderboard", err)
		}
		entries := make([]models.LeaderboardEntry, 0, len(unis))
		for i, u := range unis {
			entries = append(entries, models.LeaderboardEntry{
				Rank:          i + 1,
				ID:            u.ID,
				Name:          u.Name,
				Points:        u.TotalPoints,
				ItemsRecycled: u.TotalItemsRecycled,
				CO2Saved:      impact.Round2(u.TotalCO2Saved),
			})
		}
		return entries, nil
	})
}

// Residences ranks residence halls by total points, optionally within one university
func (s *LeaderboardService) Residences(ctx context.Context, university string, limit int) ([]models.LeaderboardEntry, error) {
	limit = s.clampLimit(limit)
	key := fmt.Sprintf("%s|%s|%d", BoardResidences, university, limit)

	return s.cached(key, func() ([]models.LeaderboardEntry, error) {
		halls, err := s.campusRepo.TopResidenceHalls(ctx, university, limit)
		if err != nil {
			return nil, backendErr("load residence leaderboard", err)
		}
		entries := make([]models.LeaderboardEntry, 0, len(halls))
		for i, h := range halls {
			entries = append(entries, models.LeaderboardEntry{
				Rank:          i + 1,
				ID:            h.ID,
				Name:          h.Name,
				University:    h.University,
				Points:        h.TotalPoints,
				ItemsRecycled: h.TotalItemsRecycled,
			})
		}
		return entries, nil
	})
}

// Search fuzzy-matches term against the names on a leaderboard. Matches keep
// their leaderboard rank and are returned best match first.
func (s *LeaderboardService) Search(ctx context.Context, term, board string, limit int) ([]models.LeaderboardEntry, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, invalidInput("search term is required")
	}

	var pool []models.LeaderboardEntry
	var err error
	switch board {
	case "", BoardIndividuals:
		pool, err = s.Individuals(ctx, "", PeriodAll, searchPoolSize)
	case BoardUniversities:
		pool, err = s.Universities(ctx, searchPoolSize)
	case BoardResidences:
		pool, err = s.Residences(ctx, "", searchPoolSize)
	default:
		return nil, invalidInput("unknown leaderboard %q", board)
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, len(pool))
	for i, e := range pool {
		names[i] = e.Name
	}
	matches := fuzzy.Find(term, names)

	limit = s.clampLimit(limit)
	out := make([]models.LeaderboardEntry, 0, len(matches))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, pool[m.Index])
	}
	return out, nil
}

// GetUserRank returns 1 + the number of users with a strictly higher balance,
// overall and within the user's university.
func (s *LeaderboardService) GetUserRank(ctx context.Context, userID primitive.ObjectID) (*models.UserRank, error) {
	user, err := findUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	above, err := s.userRepo.CountWithBalanceAbove(ctx, user.PointsBalance, "")
	if err != nil {
		return nil, backendErr("count users above", err)
	}
	rank := &models.UserRank{
		Rank:          above + 1,
		PointsBalance: user.PointsBalance,
		University:    user.University,
	}

	if user.University != "" {
		uniAbove, err := s.userRepo.CountWithBalanceAbove(ctx, user.PointsBalance, user.University)
		if err != nil {
			slog.Warn("GetUserRank: failed to compute university rank", "error", err, "userId", userID)
		} else {
			rank.UniversityRank = uniAbove + 1
		}
	}
	return rank, nil
}
