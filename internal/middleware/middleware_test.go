package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adbeam/recycling-rewards-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(tokens *jwt.TokenService) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	authed := r.Group("/", JWTAuthMiddleware(tokens))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(UserIDKey), "role": c.GetString(UserRoleKey)})
	})
	authed.GET("/vendor", RequireRole("vendor", "admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	tokens := jwt.NewTokenService("secret", "test", time.Hour)
	r := newRouter(tokens)

	w := do(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(r, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")

	token, err := tokens.Generate(jwt.Claims{UserID: "u1", Role: "student"})
	require.NoError(t, err)
	w = do(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","role":"student"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_Expired(t *testing.T) {
	tokens := jwt.NewTokenService("secret", "test", -time.Minute)
	token, err := tokens.Generate(jwt.Claims{UserID: "u1"})
	require.NoError(t, err)

	w := do(newRouter(tokens), "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token has expired")
}

func TestRequireRole(t *testing.T) {
	tokens := jwt.NewTokenService("secret", "test", time.Hour)
	r := newRouter(tokens)

	student, _ := tokens.Generate(jwt.Claims{UserID: "u1", Role: "student"})
	vendor, _ := tokens.Generate(jwt.Claims{UserID: "v1", Role: "vendor"})

	assert.Equal(t, http.StatusForbidden, do(r, "/vendor", student).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/vendor", vendor).Code)
}

func TestRequestIDMiddleware_KeepsIncomingID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.edu"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.edu")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.edu", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTimeoutMiddleware(t *testing.T) {
	var remaining time.Duration
	var hasDeadline bool
	r := gin.New()
	r.Use(TimeoutMiddleware(5 * time.Second))
	r.GET("/slow", func(c *gin.Context) {
		var deadline time.Time
		deadline, hasDeadline = c.Request.Context().Deadline()
		remaining = time.Until(deadline)
		c.Status(http.StatusNoContent)
	})

	w := do(r, "/slow", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.True(t, hasDeadline)
	assert.True(t, remaining > 0 && remaining <= 5*time.Second, remaining)
}

func TestTimeoutMiddleware_Disabled(t *testing.T) {
	var hasDeadline bool
	r := gin.New()
	r.Use(TimeoutMiddleware(0))
	r.GET("/", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})

	do(r, "/", "")
	assert.False(t, hasDeadline)
}
