package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

// Validate HTTP服务配置校验
func (h *ServerConfig) Validate() error {
	if err := valid.Struct(h); err != nil {
		return err
	}
	// 	校验Addr格式(必须是 ":port" 或 "ip:port")
	if h.Addr == "" {
		return errors.New("[ERROR] Server.Addr cannot be empty")
	}
	// 	用net包解析地址，验证格式合法性
	if _, err := net.ResolveTCPAddr("tcp", h.Addr); err != nil {
		return fmt.Errorf("[ERROR] Server.Addr format invalid (expected: :port or ip:port), got %s: %w", h.Addr, err)
	}
	if strings.ContainsAny(h.Runtime, "\"\\\n") {
		return fmt.Errorf("server.runtime %q must not contain quotes, backslashes or newlines", h.Runtime)
	}
	return nil
}

var labelNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate 公共标签名必须是合法的 Prometheus 标签名，且不能占用保留前缀
func (m *MetricsConfig) Validate() error {
	if err := valid.Struct(m); err != nil {
		return err
	}
	for name := range m.CommonLabels {
		if !labelNameRE.MatchString(name) {
			return fmt.Errorf("metrics.common_labels: invalid label name %q", name)
		}
		if strings.HasPrefix(name, "__") {
			return fmt.Errorf("metrics.common_labels: label name %q uses reserved prefix __", name)
		}
	}
	return nil
}

// Enabled 已启用的绑定器名称（按固定顺序）
func (b BinderConfig) Enabled() []string {
	var names []string
	for _, e := range []struct {
		name string
		on   bool
	}{
		{"build", b.Build},
		{"memory", b.Memory},
		{"gc", b.GC},
		{"threads", b.Threads},
		{"processor", b.Processor},
		{"process", b.Process},
	} {
		if e.on {
			names = append(names, e.name)
		}
	}
	return names
}
