package utils

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const genericServerError = "An unexpected error occurred. Please try again later."

// SendJSONError sends a standardized JSON error response and logs the internal error.
// For 5xx errors, it sends a generic public message while logging the actual internalError.
// For 4xx errors, the publicMsg is shown to the client, and internalError (if provided) is logged.
func SendJSONError(c *gin.Context, statusCode int, publicMsg string, internalError error, details ...string) {
	response := gin.H{"error": publicMsg}
	if len(details) > 0 && details[0] != "" {
		response["details"] = details[0]
	}
	send(c, statusCode, response, internalError)
}

// SendValidationError responds 400 with the offending fields and, for closed
// enumerations, the accepted options.
func SendValidationError(c *gin.Context, publicMsg string, fields, options []string) {
	response := gin.H{"error": publicMsg}
	if len(fields) > 0 {
		response["fields"] = fields
	}
	if len(options) > 0 {
		response["options"] = options
	}
	send(c, http.StatusBadRequest, response, nil)
}

func send(c *gin.Context, statusCode int, response gin.H, internalError error) {
	attrs := []any{
		"component", "http",
		"status", statusCode,
		"public_message", response["error"],
		"path", c.Request.URL.Path,
	}
	if d, ok := response["details"]; ok {
		attrs = append(attrs, "details", d)
	}
	if internalError != nil {
		attrs = append(attrs, "error", internalError)
		_ = c.Error(internalError)
	}

	switch {
	case statusCode >= http.StatusInternalServerError:
		slog.Error("[Handler] error response", attrs...)
		// Internal detail is logged, never sent.
		if publicMsg, _ := response["error"].(string); publicMsg == "" ||
			(internalError != nil && publicMsg == internalError.Error()) {
			response["error"] = genericServerError
		}
		delete(response, "details")
	case internalError != nil:
		slog.Warn("[Handler] error response", attrs...)
	default:
		slog.Info("[Handler] error response", attrs...)
	}

	c.AbortWithStatusJSON(statusCode, response)
}
