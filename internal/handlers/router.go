package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the handler's routes onto a gin engine.
func NewRouter(h *HTTPHandler, maxBodyBytes int64) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), limitBody(maxBodyBytes))

	h.RegisterPublicRoutes(r)

	eventRoutes := r.Group("/api/events/:id")
	eventRoutes.Use(h.EventMiddleware())
	h.RegisterEventRoutes(eventRoutes)

	return r
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
