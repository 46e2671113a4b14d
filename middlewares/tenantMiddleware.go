package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mitrabooks/pos_backend/utils"
)

// TenantMiddleware lifts the tenant headers into the request context. Every
// business operation downstream resolves its scope from the context, never
// from the request directly.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId := c.Request.Header.Get("X-Business-Id")
		if businessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "X-Business-Id header is required"})
			c.Abort()
			return
		}

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)

		if actor := c.Request.Header.Get("X-Actor-Id"); actor != "" {
			actorId, err := strconv.Atoi(actor)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "X-Actor-Id must be numeric"})
				c.Abort()
				return
			}
			ctx = utils.SetActorIdInContext(ctx, actorId)
		}

		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Header("X-Correlation-Id", correlationId)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
