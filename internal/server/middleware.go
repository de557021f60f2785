package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/lovably74/SmartCON-sub001/internal/actorctx"
	"github.com/lovably74/SmartCON-sub001/internal/tenantctx"
)

const (
	headerTenantID       = "X-Tenant-Id"
	headerActorID        = "X-Actor-Id"
	headerIdempotencyKey = "Idempotency-Key"
)

// TenantContext resolves the calling tenant from the X-Tenant-Id header. The
// header is optional here; operations that require a tenant enforce it in the
// service layer.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerTenantID))
		if raw == "" {
			c.Next()
			return
		}

		tenantID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		ctx := tenantctx.WithTenantID(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ActorContext attributes requests to the acting identity for the audit
// trail. Requests without an X-Actor-Id header are recorded under the given
// default actor type with an empty ID.
func ActorContext(defaultActorType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := strings.TrimSpace(c.GetHeader(headerActorID))
		ctx := actorctx.WithActor(c.Request.Context(), defaultActorType, actorID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
