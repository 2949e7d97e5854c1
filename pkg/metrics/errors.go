package metrics

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration 注册冲突（同名不同类型等），启动阶段应直接失败
	ErrConfiguration = errors.New("metrics: configuration error")
	// ErrInvalidArgument 非法参数：负增量、负耗时、非法指标名/标签名
	ErrInvalidArgument = errors.New("metrics: invalid argument")
	// ErrRegistryClosed 注册表关闭后不再接受新的注册
	ErrRegistryClosed = errors.New("metrics: registry closed")
)

// ConfigurationError 注册时发现指标族类型冲突
type ConfigurationError struct {
	Name      string
	Existing  Kind
	Requested Kind
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("metrics: cannot register %s %q: %s", e.Requested, e.Name, e.Reason)
	}
	return fmt.Sprintf("metrics: cannot register %s %q: already registered as %s",
		e.Requested, e.Name, e.Existing)
}

// Is 使 errors.Is(err, ErrConfiguration) 成立
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
