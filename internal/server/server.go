// Package server 提供 HTTP 服务：/health 健康检查、/metrics 指标暴露，
// 以及可切换的标准库 / gin 两种引擎和优雅关闭。
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/metrics-sample/pkg/config"
	"github.com/metrics-sample/pkg/metrics"
)

// Server HTTP服务实例，封装核心依赖和配置
type Server struct {
	cfg    config.ServerConfig
	logger *zap.Logger
	server *http.Server
	routes []string

	mu sync.Mutex
	ln net.Listener
}

// New 创建HTTP服务实例（注册表由调用方注入）
func New(cfg *config.Config, reg *metrics.Registry, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e, err := NewEndpoints(cfg, reg, logger)
	if err != nil {
		return nil, fmt.Errorf("init endpoints: %w", err)
	}

	var (
		handler http.Handler
		routes  []string
	)
	switch cfg.Server.Engine {
	case "gin":
		handler, routes = newGinHandler(e)
	case "http", "":
		handler, routes = newHTTPHandler(e)
	default:
		return nil, fmt.Errorf("unknown server engine %q", cfg.Server.Engine)
	}

	return &Server{
		cfg:    cfg.Server,
		logger: logger,
		routes: routes,
		server: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			ErrorLog:     zap.NewStdLog(logger),
		},
	}, nil
}

// Handler 路由处理器（测试用 httptest 直接驱动）
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Addr 实际监听地址；未启动时返回配置地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.cfg.Addr
}

// Start 同步绑定端口，随后在子goroutine中提供服务
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info(
		"starting HTTP server",
		zap.String("listen_addr", ln.Addr().String()),
		zap.String("engine", s.cfg.Engine),
		zap.String("runtime", s.cfg.RuntimeName()),
		zap.Strings("routes", s.routes),
	)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown 优雅关闭HTTP服务
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, closing remaining connections")
			return s.server.Close()
		}
		s.logger.Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP server shutdown successfully")
	return nil
}
