package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	draftcontract "draftmail/contracts/draft"
	"draftmail/draft-service/internal/handler"
	"draftmail/pkg/metrics"
	"draftmail/pkg/trace"
)

// Pinger reports whether the generation backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	Engine *gin.Engine
}

// NewRouter wires the draft endpoint. An empty jwtSecret leaves /generate open.
func NewRouter(draftHandler *handler.DraftHandler, backend Pinger, jwtSecret string, logger *zap.Logger) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), trace.Middleware(), metrics.GinMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := backend.Ping(ctx); err != nil {
			c.JSON(503, gin.H{"status": "model_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metrics.Handler())

	if jwtSecret != "" {
		r.POST(draftcontract.GeneratePath, ServiceAuthMiddleware(jwtSecret, logger), draftHandler.Generate)
	} else {
		r.POST(draftcontract.GeneratePath, draftHandler.Generate)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
