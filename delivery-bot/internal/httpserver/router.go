package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"draftmail/pkg/metrics"
	"draftmail/pkg/trace"
)

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Router struct {
	Engine *gin.Engine
}

// NewRouter serves health and metrics for the bot. checks are run by /readyz, keyed by name.
func NewRouter(checks map[string]ReadinessCheck) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), trace.Middleware(), metrics.GinMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				c.JSON(503, gin.H{"status": name + "_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metrics.Handler())

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
