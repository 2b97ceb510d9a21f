package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lexicon/middleware"
	"lexicon/services"
	"lexicon/utils"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// APIHandler holds all dependencies for API handlers.
type APIHandler struct {
	submissionService services.SubmissionService
	moderationService services.ModerationService
	ledgerService     services.LedgerService
	variantDetector   services.VariantDetector
	authService       services.AuthService
	db                *gorm.DB
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(
	submissionService services.SubmissionService,
	moderationService services.ModerationService,
	ledgerService services.LedgerService,
	variantDetector services.VariantDetector,
	authService services.AuthService,
	db *gorm.DB,
) *APIHandler {
	return &APIHandler{
		submissionService: submissionService,
		moderationService: moderationService,
		ledgerService:     ledgerService,
		variantDetector:   variantDetector,
		authService:       authService,
		db:                db,
	}
}

// RegisterRoutes mounts every lexicon endpoint on r. Identity must already be
// installed on r for actors to be resolved.
func RegisterRoutes(r gin.IRouter, h *APIHandler) {
	r.GET("/healthz", h.HealthHandler)

	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", h.RegisterHandler)
			authGroup.POST("/login", h.LoginHandler)
		}

		termGroup := apiGroup.Group("/terms")
		{
			termGroup.POST("", h.SubmitTermHandler)
			termGroup.GET("", h.ListTermsHandler)
			termGroup.GET("/:termID", h.GetTermHandler)
			termGroup.POST("/:termID/examples", h.AddExampleHandler)
			termGroup.GET("/:termID/versions", h.ListVersionsHandler)
			termGroup.POST("/:termID/versions", h.AppendVersionHandler)
		}

		apiGroup.POST("/variants/check", h.CheckVariantHandler)

		adminGroup := apiGroup.Group("/admin")
		{
			adminGroup.GET("/terms/pending", h.PendingQueueHandler)
			adminGroup.POST("/terms/:termID/moderate", h.ModerateTermHandler)
			adminGroup.POST("/examples/:exampleID/moderate", h.ModerateExampleHandler)
		}
	}
}

// HealthHandler reports whether the record store is reachable.
// GET /healthz
func (h *APIHandler) HealthHandler(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"code": 200, "message": "ok"})
		return
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		utils.SendJSONError(c, http.StatusServiceUnavailable, "Record store unavailable.", err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		utils.SendJSONError(c, http.StatusServiceUnavailable, "Record store unavailable.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "ok"})
}

// respondError maps a service error onto the HTTP error taxonomy.
// publicMsg is used for errors outside the taxonomy.
func respondError(c *gin.Context, err error, publicMsg string) {
	var (
		validationErr *services.ValidationError
		authErr       *services.AuthorizationError
		persistErr    *services.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		utils.SendValidationError(c, validationErr.Message, validationErr.Fields, validationErr.Options)
	case errors.As(err, &authErr):
		if authErr.Actor.IsAnonymous() {
			utils.SendJSONError(c, http.StatusUnauthorized, "Authentication required.", err)
			return
		}
		utils.SendJSONError(c, http.StatusForbidden, "You do not have permission to perform this action.", err)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.SendJSONError(c, http.StatusUnauthorized, "Invalid username or password.", nil)
	case errors.Is(err, services.ErrNotFound):
		utils.SendJSONError(c, http.StatusNotFound, "Not found.", nil)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.SendJSONError(c, http.StatusConflict, "This item has already been moderated.", nil)
	case errors.As(err, &persistErr):
		c.Header("Retry-After", "1")
		utils.SendJSONError(c, http.StatusServiceUnavailable, "The lexicon store is temporarily unavailable. Please retry.", err)
	default:
		utils.SendJSONError(c, http.StatusInternalServerError, publicMsg, err)
	}
}

func actor(c *gin.Context) services.Actor {
	return middleware.ActorFrom(c)
}

// pagination reads limit and offset query parameters.
func pagination(c *gin.Context) (limit, offset int, err error) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return 0, 0, &services.ValidationError{Message: "limit must be a positive integer", Fields: []string{"limit"}}
		}
		limit = min(limit, maxPageSize)
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, &services.ValidationError{Message: "offset must be a non-negative integer", Fields: []string{"offset"}}
		}
	}
	return limit, offset, nil
}
