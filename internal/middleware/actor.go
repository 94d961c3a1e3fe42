package middleware

import (
	"github.com/gin-gonic/gin"

	"freight/internal/domain"
)

const (
	actorHeader = "X-Actor-ID"
	orgHeader   = "X-Org-ID"

	// ActorContextKey is where the acting identity lives in the gin context.
	ActorContextKey = "actor"
)

// ActorMiddleware extracts the verified acting identity set by the
// identity collaborator upstream and passes it on explicitly. The core
// never reads identity from ambient state.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ActorContextKey, domain.Actor{
			UserID: c.GetHeader(actorHeader),
			OrgID:  c.GetHeader(orgHeader),
		})
		c.Next()
	}
}

// ActorFrom returns the acting identity for the request.
func ActorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(ActorContextKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}
