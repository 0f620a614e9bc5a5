package handlers

import (
	"net/http"
	"strconv"

	"github.com/adbeam/recycling-rewards-backend/internal/middleware"
	"github.com/adbeam/recycling-rewards-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

var statusByCode = map[string]int{
	"NotFound":            http.StatusNotFound,
	"TemplateNotFound":    http.StatusNotFound,
	"InvalidInput":        http.StatusBadRequest,
	"InvalidCredentials":  http.StatusUnauthorized,
	"InsufficientBalance": http.StatusUnprocessableEntity,
	"InsufficientPoints":  http.StatusUnprocessableEntity,
	"TemplateInactive":    http.StatusUnprocessableEntity,
	"OutOfStock":          http.StatusConflict,
	"AlreadyRedeemed":     http.StatusConflict,
	"DuplicateSubmission": http.StatusConflict,
	"EmailTaken":          http.StatusConflict,
	"Expired":             http.StatusGone,
	"BackendUnavailable":  http.StatusServiceUnavailable,
}

// respondError writes the failure envelope for err. Backend failures are
// logged and reported without detail.
func respondError(c *gin.Context, err error) {
	code := services.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	reason := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "path", c.FullPath(), "requestId", c.GetString(middleware.RequestIDKey))
		reason = "service temporarily unavailable, please retry"
	}

	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": code, "reason": reason})
}

func badRequest(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "InvalidInput", "reason": reason})
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// currentUserID returns the authenticated caller's id.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.UserIDKey))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized", "reason": "invalid user identity"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
