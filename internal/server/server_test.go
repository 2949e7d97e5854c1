package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrics-sample/pkg/config"
	"github.com/metrics-sample/pkg/exposition"
	"github.com/metrics-sample/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, engine string, mutate ...func(*config.Config)) (*Server, *metrics.Registry) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.Engine = engine
	for _, m := range mutate {
		m(cfg)
	}
	reg := metrics.NewRegistry()
	srv, err := New(cfg, reg, nil)
	require.NoError(t, err)
	return srv, reg
}

func do(t *testing.T, h http.Handler, method, path string) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

var engines = []struct {
	engine  string
	runtime string
}{
	{"http", "net/http"},
	{"gin", "gin"},
}

func TestHealth(t *testing.T) {
	for _, e := range engines {
		t.Run(e.engine, func(t *testing.T) {
			srv, _ := newTestServer(t, e.engine)
			res, body := do(t, srv.Handler(), http.MethodGet, "/health")

			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
			assert.JSONEq(t, `{"status":"UP","runtime":"`+e.runtime+`"}`, body)
		})
	}
}

func TestHealth_RuntimeOverride(t *testing.T) {
	srv, _ := newTestServer(t, "http", func(c *config.Config) { c.Server.Runtime = "custom" })
	_, body := do(t, srv.Handler(), http.MethodGet, "/health")
	assert.Equal(t, `{"status":"UP","runtime":"custom"}`, body)
}

func TestMetrics_CountsHealthRequests(t *testing.T) {
	for _, e := range engines {
		t.Run(e.engine, func(t *testing.T) {
			srv, _ := newTestServer(t, e.engine)
			h := srv.Handler()
			for i := 0; i < 3; i++ {
				do(t, h, http.MethodGet, "/health")
			}

			res, body := do(t, h, http.MethodGet, "/metrics")
			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.Equal(t, exposition.ContentType, res.Header.Get("Content-Type"))
			assert.Contains(t, body, "app_requests_total{endpoint=\"health\"} 3.0\n")
			assert.Contains(t, body, "app_response_time_seconds_count{endpoint=\"health\"} 3.0\n")
			assert.Contains(t, body, `http_server_requests_seconds_count{method="GET",status="200",uri="/health"} 3.0`)
		})
	}
}

func TestMetrics_FirstScrapeAfterOneHealth(t *testing.T) {
	srv, reg := newTestServer(t, "http")
	do(t, srv.Handler(), http.MethodGet, "/health")

	// 仅渲染端点指标族，避免请求计时影响逐字节比较
	s := reg.Snapshot()
	for _, f := range s.Families {
		if f.Name == "app_requests_total" {
			out := exposition.NewRenderer().Render(metrics.Snapshot{Families: []metrics.Family{f}})
			assert.Equal(t, "app_requests_total{endpoint=\"health\"} 1.0\n", string(out))
			return
		}
	}
	t.Fatal("app_requests_total not registered")
}

func TestMetrics_MethodHandling(t *testing.T) {
	for _, e := range engines {
		t.Run(e.engine, func(t *testing.T) {
			srv, _ := newTestServer(t, e.engine)
			h := srv.Handler()

			res, body := do(t, h, http.MethodHead, "/metrics")
			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.Empty(t, body)

			res, _ = do(t, h, http.MethodPost, "/metrics")
			assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
			assert.Equal(t, "GET, HEAD", res.Header.Get("Allow"))

			res, _ = do(t, h, http.MethodPost, "/")
			assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
			assert.Equal(t, "GET, HEAD", res.Header.Get("Allow"))

			res, body = do(t, h, http.MethodHead, "/")
			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.Empty(t, body)
		})
	}
}

func TestMethodLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{http.MethodGet, "GET"},
		{http.MethodHead, "HEAD"},
		{http.MethodPost, "POST"},
		{http.MethodPut, "PUT"},
		{http.MethodPatch, "PATCH"},
		{http.MethodDelete, "DELETE"},
		{http.MethodOptions, "OPTIONS"},
		{http.MethodConnect, "CONNECT"},
		{http.MethodTrace, "TRACE"},
		{"get", otherMethod},
		{"PROPFIND", otherMethod},
		{"", otherMethod},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, methodLabel(tt.in), "method %q", tt.in)
	}
}

func TestRequestTimer_UnknownMethodsShareOneSeries(t *testing.T) {
	for _, e := range engines {
		t.Run(e.engine, func(t *testing.T) {
			srv, reg := newTestServer(t, e.engine)
			h := srv.Handler()

			for i := 0; i < 200; i++ {
				res, _ := do(t, h, fmt.Sprintf("X%d", i), "/nope")
				assert.Equal(t, http.StatusNotFound, res.StatusCode)
			}

			var series int
			for _, f := range reg.Snapshot().Families {
				if f.Name == "http_server_requests_seconds" {
					series = len(f.Samples)
				}
			}
			assert.Equal(t, 1, series)

			_, body := do(t, h, http.MethodGet, "/metrics")
			assert.Contains(t, body,
				`http_server_requests_seconds_count{method="_OTHER",status="404",uri="NOT_FOUND"} 200.0`)
		})
	}
}

func TestNotFound(t *testing.T) {
	for _, e := range engines {
		t.Run(e.engine, func(t *testing.T) {
			srv, _ := newTestServer(t, e.engine)
			h := srv.Handler()

			res, body := do(t, h, http.MethodGet, "/nope")
			assert.Equal(t, http.StatusNotFound, res.StatusCode)
			assert.Equal(t, "Not Found", body)

			_, metricsBody := do(t, h, http.MethodGet, "/metrics")
			assert.Contains(t, metricsBody, `uri="NOT_FOUND"`)
			assert.Contains(t, metricsBody, `status="404"`)
		})
	}
}

func TestIndex(t *testing.T) {
	for _, e := range engines {
		t.Run(e.engine, func(t *testing.T) {
			srv, _ := newTestServer(t, e.engine)
			res, body := do(t, srv.Handler(), http.MethodGet, "/")
			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "text/html"))
			assert.Contains(t, body, `href="/metrics"`)
		})
	}
}

func TestMetrics_MetadataEnabled(t *testing.T) {
	srv, _ := newTestServer(t, "http", func(c *config.Config) { c.Metrics.TypeComments = true })
	do(t, srv.Handler(), http.MethodGet, "/health")
	_, body := do(t, srv.Handler(), http.MethodGet, "/metrics")
	assert.Contains(t, body, "# TYPE app_requests_total counter\n")
	assert.Contains(t, body, "# TYPE app_response_time_seconds summary\n")
}

func TestMetrics_PrometheusExposition(t *testing.T) {
	for _, e := range engines {
		t.Run(e.engine, func(t *testing.T) {
			srv, _ := newTestServer(t, e.engine, func(c *config.Config) { c.Metrics.Exposition = "prometheus" })
			h := srv.Handler()
			do(t, h, http.MethodGet, "/health")

			res, body := do(t, h, http.MethodGet, "/metrics")
			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "text/plain"))
			assert.Contains(t, body, "# TYPE app_requests_total counter")
			assert.Contains(t, body, `app_requests_total{endpoint="health"} 1`)
		})
	}
}

func TestNew_KindCollisionIsFatal(t *testing.T) {
	cfg := config.NewDefaultConfig()
	reg := metrics.NewRegistry()
	_, err := reg.Gauge("app_requests_total", metrics.Labels{"endpoint": "health"}, nil)
	require.NoError(t, err)

	_, err = New(cfg, reg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, metrics.ErrConfiguration)
}

func TestStartAndShutdown(t *testing.T) {
	for _, e := range engines {
		t.Run(e.engine, func(t *testing.T) {
			srv, _ := newTestServer(t, e.engine)
			require.NoError(t, srv.Start())

			res, err := http.Get("http://" + srv.Addr() + "/health")
			require.NoError(t, err)
			_ = res.Body.Close()
			assert.Equal(t, http.StatusOK, res.StatusCode)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			require.NoError(t, srv.Shutdown(ctx))

			_, err = http.Get("http://" + srv.Addr() + "/health")
			assert.Error(t, err)
		})
	}
}
