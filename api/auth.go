package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lexicon/models"
	"lexicon/utils"
)

// RegisterHandler creates a contributor account.
// POST /api/auth/register
// Request body: { "username": "string", "display_name": "string", "password": "string" }
func (h *APIHandler) RegisterHandler(c *gin.Context) {
	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Username, req.DisplayName, req.Password, models.RoleContributor)
	if err != nil {
		respondError(c, err, "Failed to register.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Account created",
		"data":    user,
	})
}

// LoginHandler exchanges credentials for a bearer token.
// POST /api/auth/login
// Request body: { "username": "string", "password": "string" }
func (h *APIHandler) LoginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	token, identity, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err, "Failed to log in.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Logged in",
		"data": gin.H{
			"token":        token,
			"token_type":   "Bearer",
			"user_id":      identity.UserID,
			"display_name": identity.DisplayName,
			"capability":   identity.Capability.String(),
		},
	})
}
