package registers

import (
	"context"

	"github.com/metrics-sample/pkg/binders"
)

// Lifecycle 顶层绑定器生命周期接口（封装所有绑定器的注册、绑定与关闭）
// 后续扩展绑定器仅需实现 binders.Binder 接口，通过模块表注册即可
type Lifecycle interface {
	Register(b binders.Binder)          // 注册绑定器
	BindAll() error                     // 把所有绑定器注册进指标注册表
	Shutdown(ctx context.Context) error // 优雅停止
}

var _ Lifecycle = (*Agent)(nil)
