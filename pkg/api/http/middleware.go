package http

import (
	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/pkg/domain"
)

const actorContextKey = "actor"

// CORS middleware
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Actor-ID, X-Actor-Name")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ActorMiddleware extracts the requesting actor's identity from headers.
// Token verification happens upstream; this service only consumes the
// already-authenticated identity.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := domain.Actor{
			ID:   c.GetHeader("X-Actor-ID"),
			Name: c.GetHeader("X-Actor-Name"),
		}
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// actorFrom returns the actor attached by ActorMiddleware
func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}
