package handlers

import (
	"context"
	"net/http"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserReader serves a user's own totals and history
type UserReader interface {
	GetUserStats(ctx context.Context, userID primitive.ObjectID) (*models.Stats, error)
	GetDashboard(ctx context.Context, userID primitive.ObjectID) (*models.Dashboard, error)
	GetTransactions(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.Transaction, error)
}

// ImpactReader serves impact scoring
type ImpactReader interface {
	GetImpactScore(ctx context.Context, userID primitive.ObjectID) float64
	GetEnvironmentalStats(ctx context.Context, userID primitive.ObjectID) (*models.EnvironmentalStats, error)
}

// UserHandler handles the /users/me endpoints
type UserHandler struct {
	users  UserReader
	impact ImpactReader
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserReader, impact ImpactReader) *UserHandler {
	return &UserHandler{users: users, impact: impact}
}

// GetStats handles GET /users/me/stats
func (h *UserHandler) GetStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.users.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// GetImpact handles GET /users/me/impact
func (h *UserHandler) GetImpact(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	score := h.impact.GetImpactScore(c.Request.Context(), userID)
	respondOK(c, http.StatusOK, gin.H{"impactScore": score})
}

// GetEnvironment handles GET /users/me/environment
func (h *UserHandler) GetEnvironment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.impact.GetEnvironmentalStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// GetDashboard handles GET /users/me/dashboard
func (h *UserHandler) GetDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	d, err := h.users.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, d)
}

// GetTransactions handles GET /users/me/transactions
func (h *UserHandler) GetTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	txs, err := h.users.GetTransactions(c.Request.Context(), userID, queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, txs)
}
