package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lexicon/services"
	"lexicon/utils"
)

// ActorKey is the gin context key holding the request's services.Actor.
const ActorKey = "actor"

// TokenVerifier resolves a bearer token to an actor.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (services.Actor, error)
}

// Identity attaches the caller's identity to the request. Requests without an
// Authorization header proceed as anonymous; a malformed or invalid token is
// rejected with 401.
func Identity(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			setActor(c, services.Actor{})
			c.Next()
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			utils.SendJSONError(c, http.StatusUnauthorized, "Authorization header must be a bearer token.", nil)
			return
		}
		actor, err := verifier.VerifyToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			var persistErr *services.PersistenceError
			if errors.As(err, &persistErr) {
				c.Header("Retry-After", "1")
				utils.SendJSONError(c, http.StatusServiceUnavailable, "The lexicon store is temporarily unavailable. Please retry.", err)
				return
			}
			utils.SendJSONError(c, http.StatusUnauthorized, "Invalid or expired token.", err)
			return
		}
		setActor(c, actor)
		c.Next()
	}
}

func setActor(c *gin.Context, actor services.Actor) {
	c.Set(ActorKey, actor)
	c.Request = c.Request.WithContext(services.WithActor(c.Request.Context(), actor))
}

// ActorFrom returns the actor attached by Identity, or the anonymous actor.
func ActorFrom(c *gin.Context) services.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(services.Actor); ok {
			return actor
		}
	}
	return services.ActorFromContext(c.Request.Context())
}
