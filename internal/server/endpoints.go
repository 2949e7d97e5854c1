package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/metrics-sample/pkg/config"
	"github.com/metrics-sample/pkg/exposition"
	"github.com/metrics-sample/pkg/metrics"
)

// uri 标签取值：未命中任何路由
const notFoundURI = "NOT_FOUND"

// otherMethod 非标准方法统一归并，保证 method 标签基数有界
const otherMethod = "_OTHER"

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
	http.MethodConnect: {},
	http.MethodTrace:   {},
}

// methodLabel 标准 HTTP 方法原样返回，其余记为 _OTHER
func methodLabel(method string) string {
	if _, ok := knownMethods[method]; ok {
		return method
	}
	return otherMethod
}

// Endpoints 两个 HTTP 引擎共享的处理函数与请求计时
type Endpoints struct {
	reg      *metrics.Registry
	logger   *zap.Logger
	runtime  string
	renderer *exposition.Renderer
	prom     http.Handler // 非空时 /metrics 走 promhttp

	healthRequests *metrics.Counter
	healthLatency  *metrics.Timer
}

type healthBody struct {
	Status  string `json:"status"`
	Runtime string `json:"runtime"`
}

// NewEndpoints 注册端点自身的指标；类型冲突属于配置错误，启动时即返回
func NewEndpoints(cfg *config.Config, reg *metrics.Registry, logger *zap.Logger) (*Endpoints, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Endpoints{
		reg:     reg,
		logger:  logger,
		runtime: cfg.Server.RuntimeName(),
	}

	var opts []exposition.RendererOption
	if cfg.Metrics.TypeComments {
		opts = append(opts, exposition.WithMetadata())
	}
	e.renderer = exposition.NewRenderer(opts...)

	if cfg.Metrics.Exposition == "prometheus" {
		promReg := prometheus.NewRegistry()
		if err := promReg.Register(exposition.NewCollector(reg, logger)); err != nil {
			return nil, fmt.Errorf("register prometheus bridge: %w", err)
		}
		e.prom = promhttp.HandlerFor(promReg, promhttp.HandlerOpts{
			ErrorLog: zap.NewStdLog(logger),
		})
	}

	health := metrics.Labels{"endpoint": "health"}
	var err error
	if e.healthRequests, err = reg.Counter("app_requests_total", health,
		metrics.WithHelp("Number of requests served per endpoint.")); err != nil {
		return nil, err
	}
	if e.healthLatency, err = reg.Timer("app_response_time_seconds", health,
		metrics.WithHelp("Time spent serving requests per endpoint.")); err != nil {
		return nil, err
	}
	return e, nil
}

// Health GET /health
func (e *Endpoints) Health(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	start := time.Now()
	e.healthRequests.Inc()
	defer e.healthLatency.RecordSince(start)

	body, _ := json.Marshal(healthBody{Status: "UP", Runtime: e.runtime})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

// Metrics GET/HEAD /metrics
func (e *Endpoints) Metrics(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	if e.prom != nil {
		e.prom.ServeHTTP(w, r)
		return
	}
	body := e.renderer.Render(e.reg.Snapshot())
	w.Header().Set("Content-Type", exposition.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		if _, err := w.Write(body); err != nil {
			e.logger.Debug("write metrics response failed", zap.Error(err))
		}
	}
}

// Index 根路径 / 显示 HTML 页面，包含可点击的链接
func (e *Endpoints) Index(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = fmt.Fprintf(w, indexHTML, e.runtime)
	}
}

// NotFound 未知路径
func (e *Endpoints) NotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Not Found"))
}

// observe 记录 http_server_requests_seconds{method,uri,status}
func (e *Endpoints) observe(method, uri string, status int, d time.Duration) {
	t, err := e.reg.Timer("http_server_requests_seconds", metrics.Labels{
		"method": methodLabel(method),
		"uri":    uri,
		"status": strconv.Itoa(status),
	}, metrics.WithHelp("Duration of HTTP server requests."))
	if err != nil {
		e.logger.Warn("request timer unavailable", zap.String("uri", uri), zap.Error(err))
		return
	}
	_ = t.Record(d)
}

func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	return false
}

const indexHTML = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
	<meta charset="UTF-8">
	<title>Metrics Sample</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 40px; }
		h1 { color: #333; }
		a { display: block; margin: 8px 0; font-size: 18px; }
		code { background-color: #f0f0f0; padding: 2px 4px; }
	</style>
</head>
<body>
	<h1>Metrics Sample Service</h1>
	<p>Runtime: <code>%s</code></p>
	<h2>Available Endpoints:</h2>
	<a href="/health">/health - 健康检查</a>
	<a href="/metrics">/metrics - Prometheus 指标暴露</a>
</body>
</html>
`
