package server

import (
	"strings"

	auditdomain "github.com/fixwell/backoffice/internal/audit/domain"
	"github.com/gin-gonic/gin"
)

// Actor identity arrives from the gateway, which has already authenticated
// the caller. The engine trusts these headers and only records them.
const (
	HeaderActorRole = "X-Actor-Role"
	HeaderActorID   = "X-Actor-ID"
)

func actorFromRequest(c *gin.Context) auditdomain.Actor {
	role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorRole)))
	return auditdomain.Actor{
		Role: auditdomain.ActorRole(role),
		ID:   strings.TrimSpace(c.GetHeader(HeaderActorID)),
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFromRequest(c)
		for _, role := range roles {
			if string(actor.Role) == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}
