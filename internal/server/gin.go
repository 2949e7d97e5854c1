package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// newGinHandler gin 引擎；路由与标准库引擎一致
func newGinHandler(e *Endpoints) (http.Handler, []string) {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), ginMiddleware(e))

	r.Any("/", gin.WrapF(e.Index))
	r.Any("/health", gin.WrapF(e.Health))
	r.Any("/metrics", gin.WrapF(e.Metrics))
	r.NoRoute(gin.WrapF(e.NotFound))

	routes := make([]string, 0)
	for _, ri := range r.Routes() {
		routes = append(routes, ri.Method+" "+ri.Path)
	}
	return r, routes
}

func ginMiddleware(e *Endpoints) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		uri := c.FullPath()
		if uri == "" {
			uri = notFoundURI
		}
		elapsed := time.Since(start)
		e.observe(c.Request.Method, uri, c.Writer.Status(), elapsed)
		e.logger.Debug(
			"HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("url", c.Request.URL.String()),
			zap.String("remote", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", elapsed),
		)
	}
}
