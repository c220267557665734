// 包 maps：地图厂商脚本加载状态机与依赖加载状态的几何引擎
package maps

import (
	"strings"
	"sync"
)

// 凭据名称
const (
	CredentialBrowser   = "maps_browser"
	CredentialGeocoding = "geocoding"
	CredentialAMap      = "amap"
)

// Credentials：显式注入的凭据存储，启动时构造后传给各组件，不做全局查找
type Credentials struct {
	mu   sync.RWMutex
	keys map[string]string
}

func NewCredentials(kv map[string]string) *Credentials {
	c := &Credentials{keys: make(map[string]string, len(kv))}
	for k, v := range kv {
		c.Set(k, v)
	}
	return c
}

func (c *Credentials) Get(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys[name]
}

// Set：空值等同删除
func (c *Credentials) Set(name, value string) {
	value = strings.TrimSpace(value)
	c.mu.Lock()
	defer c.mu.Unlock()
	if value == "" {
		delete(c.keys, name)
		return
	}
	c.keys[name] = value
}

func (c *Credentials) Has(name string) bool { return c.Get(name) != "" }
