package middleware

import "github.com/gin-gonic/gin"

const actorHeader = "X-Actor-ID"

// DefaultActor is recorded on audit fields when the caller does not identify
// itself.
const DefaultActor = "api"

// ActorFromRequest returns the caller identity to stamp on audit fields.
// Callers in front of this service (the storefront backend, ops tooling) pass
// it through the X-Actor-ID header.
func ActorFromRequest(c *gin.Context) string {
	if actor := c.GetHeader(actorHeader); actor != "" {
		return actor
	}
	return DefaultActor
}
