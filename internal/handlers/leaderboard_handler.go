package handlers

import (
	"context"
	"net/http"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Leaderboards is the leaderboard service as seen by the HTTP layer
type Leaderboards interface {
	Individuals(ctx context.Context, university, period string, limit int) ([]models.LeaderboardEntry, error)
	Universities(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	Residences(ctx context.Context, university string, limit int) ([]models.LeaderboardEntry, error)
	Search(ctx context.Context, term, board string, limit int) ([]models.LeaderboardEntry, error)
	GetUserRank(ctx context.Context, userID primitive.ObjectID) (*models.UserRank, error)
}

// LeaderboardHandler handles leaderboard HTTP requests
type LeaderboardHandler struct {
	leaderboards Leaderboards
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(leaderboards Leaderboards) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboards: leaderboards}
}

// Individuals handles GET /leaderboard/individuals?university=&period=&limit=
func (h *LeaderboardHandler) Individuals(c *gin.Context) {
	entries, err := h.leaderboards.Individuals(c.Request.Context(), c.Query("university"), c.Query("period"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entries)
}

// Universities handles GET /leaderboard/universities
func (h *LeaderboardHandler) Universities(c *gin.Context) {
	entries, err := h.leaderboards.Universities(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entries)
}

// Residences handles GET /leaderboard/residences?university=
func (h *LeaderboardHandler) Residences(c *gin.Context) {
	entries, err := h.leaderboards.Residences(c.Request.Context(), c.Query("university"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entries)
}

// Search handles GET /leaderboard/search?q=&type=
func (h *LeaderboardHandler) Search(c *gin.Context) {
	entries, err := h.leaderboards.Search(c.Request.Context(), c.Query("q"), c.Query("type"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entries)
}

// Rank handles GET /leaderboard/rank
func (h *LeaderboardHandler) Rank(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rank, err := h.leaderboards.GetUserRank(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, rank)
}
