package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// defaultServiceName 未调用 SetServiceName 时 service 标签的取值
const defaultServiceName = "raid-server"

// registryState 包级 Registerer 与 service 标签，测试可替换
type registryState struct {
	mu          sync.RWMutex
	registerer  prometheus.Registerer
	serviceName string
}

var state = &registryState{registerer: prometheus.DefaultRegisterer, serviceName: defaultServiceName}

// SetRegisterer 设置全局 Registerer，nil 恢复默认
func SetRegisterer(r prometheus.Registerer) {
	if r == nil {
		r = prometheus.DefaultRegisterer
	}
	state.mu.Lock()
	state.registerer = r
	state.mu.Unlock()
}

// GetRegisterer 返回当前的 Registerer
func GetRegisterer() prometheus.Registerer {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.registerer
}

// SetServiceName 模块 OnInit 时设置 service 标签，空串恢复默认
func SetServiceName(name string) {
	if name == "" {
		name = defaultServiceName
	}
	state.mu.Lock()
	state.serviceName = name
	state.mu.Unlock()
}

func GetServiceName() string {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.serviceName
}

// serviceLabel 调用方没传 service 时退回全局名称
func serviceLabel(name string) string {
	if name == "" {
		return GetServiceName()
	}
	return name
}
