package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lexicon/services"
	"lexicon/utils"
)

type moderationRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

// ModerateTermHandler applies an admin decision to a pending term.
// POST /api/admin/terms/:termID/moderate
// Request body: { "decision": "approve|reject", "note": "string" }
func (h *APIHandler) ModerateTermHandler(c *gin.Context) {
	if err := services.Authorize(actor(c), services.CapabilityAdmin); err != nil {
		respondError(c, err, "Moderation requires an admin.")
		return
	}
	var req moderationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	decision, err := services.ValidateDecision(req.Decision)
	if err != nil {
		respondError(c, err, "Invalid decision.")
		return
	}

	term, err := h.moderationService.Moderate(c.Request.Context(), actor(c), c.Param("termID"), decision, req.Note)
	if err != nil {
		respondError(c, err, "Failed to moderate term.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Term " + string(term.Status),
		"data":    term,
	})
}

// ModerateExampleHandler applies an admin decision to a single pending example.
// POST /api/admin/examples/:exampleID/moderate
func (h *APIHandler) ModerateExampleHandler(c *gin.Context) {
	if err := services.Authorize(actor(c), services.CapabilityAdmin); err != nil {
		respondError(c, err, "Moderation requires an admin.")
		return
	}
	var req moderationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	decision, err := services.ValidateDecision(req.Decision)
	if err != nil {
		respondError(c, err, "Invalid decision.")
		return
	}

	example, err := h.moderationService.ModerateExample(c.Request.Context(), actor(c), c.Param("exampleID"), decision)
	if err != nil {
		respondError(c, err, "Failed to moderate example.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Example " + string(example.Status),
		"data":    example,
	})
}

// PendingQueueHandler lists terms awaiting review, oldest first.
// GET /api/admin/terms/pending?limit=&offset=
func (h *APIHandler) PendingQueueHandler(c *gin.Context) {
	limit, offset, err := pagination(c)
	if err != nil {
		respondError(c, err, "Invalid pagination.")
		return
	}
	terms, err := h.moderationService.ListPendingQueue(c.Request.Context(), actor(c), limit, offset)
	if err != nil {
		respondError(c, err, "Failed to fetch moderation queue.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Moderation queue retrieved successfully",
		"data":    terms,
	})
}
