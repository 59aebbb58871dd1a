package inventory

import (
	"github.com/voyago-next/internal/constants"
)

// Registry 按供应来源注册的供应商集合
type Registry struct {
	providers map[string]Provider
}

// NewRegistry 创建供应商注册表
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register 注册供应来源对应的供应商实现
func (r *Registry) Register(source string, provider Provider) {
	if r == nil || provider == nil || !constants.IsProviderBacked(source) {
		return
	}
	r.providers[source] = provider
}

// Resolve 返回供应来源对应的供应商实现；离线来源无供应商
func (r *Registry) Resolve(source string) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	provider, ok := r.providers[source]
	return provider, ok
}
