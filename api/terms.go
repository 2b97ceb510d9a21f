package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lexicon/models"
	"lexicon/services"
	"lexicon/utils"
)

type warningResponse struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func warningsResponse(warnings []*services.PartialWriteWarning) []warningResponse {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]warningResponse, len(warnings))
	for i, w := range warnings {
		out[i] = warningResponse{Stage: w.Stage, Message: warningMessages[w.Stage]}
	}
	return out
}

var warningMessages = map[string]string{
	services.StageExamples:       "The term was saved but its examples could not be stored. Please add them again.",
	services.StageInitialVersion: "The term was saved but its history entry could not be recorded.",
	services.StageVariantLink:    "The term was saved but the variant link could not be recorded on the original term.",
	services.StageExampleVersion: "The example was saved but its history entry could not be recorded.",
}

// SubmitTermHandler handles contributor submissions of new terms.
// POST /api/terms
func (h *APIHandler) SubmitTermHandler(c *gin.Context) {
	var req services.SubmissionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err, "Failed to submit term.")
		return
	}

	data := gin.H{
		"term_id": result.Term.ID,
		"term":    result.Term.Term,
		"status":  result.Term.Status,
	}
	if warnings := warningsResponse(result.Warnings); warnings != nil {
		data["warnings"] = warnings
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Term submitted for review",
		"data":    data,
	})
}

// ListTermsHandler lists approved terms, newest first.
// GET /api/terms?category=&language=&risk=&limit=&offset=
func (h *APIHandler) ListTermsHandler(c *gin.Context) {
	filter, err := services.ValidateListFilter(c.Query("category"), c.Query("language"), c.Query("risk"))
	if err != nil {
		respondError(c, err, "Invalid filter.")
		return
	}
	filter.Limit, filter.Offset, err = pagination(c)
	if err != nil {
		respondError(c, err, "Invalid pagination.")
		return
	}

	terms, err := h.moderationService.ListApproved(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to fetch terms.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Terms retrieved successfully",
		"data":    terms,
	})
}

// GetTermHandler returns a single term with its examples.
// GET /api/terms/:termID
func (h *APIHandler) GetTermHandler(c *gin.Context) {
	term, err := h.moderationService.GetTerm(c.Request.Context(), actor(c), c.Param("termID"))
	if err != nil {
		respondError(c, err, "Failed to fetch term.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Term retrieved successfully",
		"data":    term,
	})
}

// AddExampleHandler attaches a new usage example to an existing term.
// POST /api/terms/:termID/examples
func (h *APIHandler) AddExampleHandler(c *gin.Context) {
	var req services.ExamplePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	result, err := h.submissionService.AddExample(c.Request.Context(), actor(c), c.Param("termID"), req)
	if err != nil {
		respondError(c, err, "Failed to add example.")
		return
	}
	data := gin.H{"example": result.Example}
	if result.Version != nil {
		data["version_number"] = result.Version.Number
	}
	if warnings := warningsResponse(result.Warnings); warnings != nil {
		data["warnings"] = warnings
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Example submitted for review",
		"data":    data,
	})
}

// ListVersionsHandler returns the version history of a term, oldest first.
// GET /api/terms/:termID/versions
func (h *APIHandler) ListVersionsHandler(c *gin.Context) {
	versions, err := h.ledgerService.ListVersions(c.Request.Context(), actor(c), c.Param("termID"))
	if err != nil {
		respondError(c, err, "Failed to fetch versions.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Versions retrieved successfully",
		"data":    versions,
	})
}

// AppendVersionHandler records a contribution in a term's history.
// POST /api/terms/:termID/versions
// Request body: { "contribution_type": "string", "summary": "string" }
func (h *APIHandler) AppendVersionHandler(c *gin.Context) {
	var req struct {
		ContributionType string `json:"contribution_type"`
		Summary          string `json:"summary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	version, err := h.ledgerService.AppendVersion(c.Request.Context(), actor(c), c.Param("termID"),
		models.ContributionType(strings.TrimSpace(req.ContributionType)), req.Summary)
	if err != nil {
		respondError(c, err, "Failed to record version.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Version recorded",
		"data":    version,
	})
}

// CheckVariantHandler suggests an existing term the candidate may be a variant of.
// POST /api/variants/check
// Request body: { "term": "string" }
func (h *APIHandler) CheckVariantHandler(c *gin.Context) {
	var req struct {
		Term string `json:"term"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	suggestion, err := h.variantDetector.Suggest(c.Request.Context(), req.Term)
	if err != nil {
		respondError(c, err, "Failed to check variants.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Variant check complete",
		"data":    gin.H{"suggested_term": suggestion},
	})
}
