package public

import "github.com/voyago-next/internal/provider"

// Handler 顾问/客户侧接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
