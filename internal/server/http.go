package server

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// statusWriter 包装ResponseWriter，捕获状态码
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader 捕获状态码
func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// customMux 自定义Mux，兼容原生用法并记录路由
type customMux struct {
	http.ServeMux
	routes []string
	mu     sync.Mutex
}

// Handle 重写Handle，注册路由时记录路径
func (m *customMux) Handle(pattern string, handler http.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, pattern)
	m.ServeMux.Handle(pattern, handler)
}

// HandleFunc 重写HandleFunc
func (m *customMux) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	m.Handle(pattern, http.HandlerFunc(handler))
}

// Routes 已注册路由（副本）
func (m *customMux) Routes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.routes))
	copy(out, m.routes)
	return out
}

// uriOf 请求命中的路由模板，兜底路由记为 NOT_FOUND
func (m *customMux) uriOf(r *http.Request) string {
	_, pattern := m.ServeMux.Handler(r)
	switch pattern {
	case "", "/":
		return notFoundURI
	case "/{$}":
		return "/"
	default:
		return pattern
	}
}

// newHTTPHandler 标准库引擎
func newHTTPHandler(e *Endpoints) (http.Handler, []string) {
	mux := &customMux{}
	mux.HandleFunc("/{$}", e.Index)
	mux.HandleFunc("/health", e.Health)
	mux.HandleFunc("/metrics", e.Metrics)
	mux.HandleFunc("/", e.NotFound)
	return logMiddleware(e, mux), mux.Routes()
}

// logMiddleware 统一日志记录 + 请求计时
func logMiddleware(e *Endpoints, mux *customMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		uri := mux.uriOf(r)

		mux.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		e.observe(r.Method, uri, sw.status, elapsed)
		e.logger.Debug(
			"HTTP request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", sw.status),
			zap.Duration("duration", elapsed),
		)
	})
}
