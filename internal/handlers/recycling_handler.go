package handlers

import (
	"context"
	"net/http"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventRecorder is the recycling service as seen by the HTTP layer
type EventRecorder interface {
	RecordEvent(ctx context.Context, in services.RecordEventInput) (*models.EventResult, error)
	GetHistory(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.RecyclingActivity, error)
}

// RecyclingHandler handles recycling submissions
type RecyclingHandler struct {
	recycling EventRecorder
}

// NewRecyclingHandler creates a new RecyclingHandler
func NewRecyclingHandler(recycling EventRecorder) *RecyclingHandler {
	return &RecyclingHandler{recycling: recycling}
}

// RecordEvent handles POST /recycling/events
func (h *RecyclingHandler) RecordEvent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.recycling.RecordEvent(c.Request.Context(), services.RecordEventInput{
		UserID:     userID,
		Material:   req.Material,
		Quantity:   req.Quantity,
		Location:   req.Location,
		DedupeCode: req.DedupeCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, res)
}

// GetHistory handles GET /recycling/history
func (h *RecyclingHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	history, err := h.recycling.GetHistory(c.Request.Context(), userID, queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, history)
}
