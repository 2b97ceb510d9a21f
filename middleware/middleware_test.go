package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lexicon/services"
)

type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) VerifyToken(ctx context.Context, token string) (services.Actor, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(services.Actor), args.Error(1)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	return r
}

func TestIdentity(t *testing.T) {
	admin := services.Actor{UserID: "admin-1", DisplayName: "Moderator", Capability: services.CapabilityAdmin}
	verifier := new(MockTokenVerifier)
	verifier.On("VerifyToken", mock.Anything, "good").Return(admin, nil)
	verifier.On("VerifyToken", mock.Anything, "expired").Return(services.Actor{}, errors.New("token is expired"))
	verifier.On("VerifyToken", mock.Anything, "unreachable").
		Return(services.Actor{}, &services.PersistenceError{Op: "fetch user", Err: errors.New("database is locked")})

	r := newRouter(Identity(verifier))
	r.GET("/whoami", func(c *gin.Context) {
		actor := ActorFrom(c)
		assert.Equal(t, actor, services.ActorFromContext(c.Request.Context()))
		c.String(http.StatusOK, actor.Capability.String())
	})

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"no header is anonymous", "", http.StatusOK, "anonymous"},
		{"valid bearer token", "Bearer good", http.StatusOK, "admin"},
		{"scheme is case insensitive", "bearer good", http.StatusOK, "admin"},
		{"invalid token", "Bearer expired", http.StatusUnauthorized, "Invalid or expired token."},
		{"wrong scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, "bearer token"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "bearer token"},
		{"store unavailable", "Bearer unreachable", http.StatusServiceUnavailable, "temporarily unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestTimeout(t *testing.T) {
	r := newRouter(Timeout(50 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		<-c.Request.Context().Done()
		c.Status(http.StatusGatewayTimeout)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestCors(t *testing.T) {
	r := newRouter(Cors())
	r.POST("/api/terms", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/terms", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestLoggerAndMetrics(t *testing.T) {
	var logs strings.Builder
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	reg := prometheus.NewRegistry()

	r := newRouter(Logger(log), Metrics(reg))
	r.GET("/api/terms/:termID", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/terms/abc", nil))
		assert.NotEmpty(t, w.Header().Get("X-Response-Time"))
	}

	assert.Contains(t, logs.String(), `"route":"/api/terms/:termID"`)
	assert.Contains(t, logs.String(), `"level":"WARN"`)

	expected := `
# HELP lexicon_http_requests_total HTTP requests by route, method and status code
# TYPE lexicon_http_requests_total counter
lexicon_http_requests_total{code="404",method="GET",route="/api/terms/:termID"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lexicon_http_requests_total"))
}
