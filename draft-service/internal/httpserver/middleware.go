package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	draftcontract "draftmail/contracts/draft"
	"draftmail/pkg/auth"
)

// ServiceAuthMiddleware requires a bearer token minted for the draft service.
func ServiceAuthMiddleware(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, draftcontract.ErrorResponse{Detail: draftcontract.DetailUnauthorized})
			return
		}

		subject, err := auth.ParseServiceToken(token, auth.AudienceDraftService, secret)
		if err != nil {
			logger.Warn("Rejected service token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, draftcontract.ErrorResponse{Detail: draftcontract.DetailUnauthorized})
			return
		}

		c.Set("caller", subject)
		c.Next()
	}
}
