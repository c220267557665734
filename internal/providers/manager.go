// 包 providers：地理编码上游的注册、心跳与健康筛选
package providers

import (
	"context"
	"sync"
	"time"

	"zone-api/internal/apperr"
	"zone-api/internal/geocode"
	"zone-api/internal/logger"
	"zone-api/internal/metrics"
)

// Provider：上游地理编码数据源
type Provider interface {
	Name() string
	Geocode(ctx context.Context, req geocode.Request) (*geocode.Result, error)
	Heartbeat(ctx context.Context) error
}

type status struct {
	healthy bool
	last    time.Time
	err     string
}

// Status：对外展示的健康状态
type Status struct {
	Name     string    `json:"name"`
	Healthy  bool      `json:"healthy"`
	LastSeen time.Time `json:"last_seen"`
	Error    string    `json:"error,omitempty"`
}

// Manager：按注册顺序排定优先级，只把请求交给第一个健康上游
// 约束：单次请求不在上游之间重试；心跳失败的上游在下次心跳成功前不参与
type Manager struct {
	mu         sync.RWMutex
	order      []Provider
	st         map[string]status
	hbInterval time.Duration
}

func NewManager(hbInterval time.Duration) *Manager {
	if hbInterval <= 0 {
		hbInterval = 10 * time.Second
	}
	return &Manager{st: make(map[string]status), hbInterval: hbInterval}
}

// Register：以当前心跳结果作为初始健康状态
func (m *Manager) Register(ctx context.Context, p Provider) {
	err := p.Heartbeat(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = append(m.order, p)
	m.st[p.Name()] = newStatus(err)
	logger.L().Info("provider_registered", "name", p.Name(), "healthy", err == nil)
}

func newStatus(err error) status {
	s := status{healthy: err == nil, last: time.Now()}
	if err != nil {
		s.err = err.Error()
	}
	return s
}

// Healthy：按优先级返回健康上游
func (m *Manager) Healthy() []Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Provider
	for _, p := range m.order {
		if m.st[p.Name()].healthy {
			out = append(out, p)
		}
	}
	return out
}

func (m *Manager) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, 0, len(m.order))
	for _, p := range m.order {
		s := m.st[p.Name()]
		out = append(out, Status{Name: p.Name(), Healthy: s.healthy, LastSeen: s.last, Error: s.err})
	}
	return out
}

// Start：后台心跳，ctx 取消时退出
func (m *Manager) Start(ctx context.Context) {
	t := time.NewTicker(m.hbInterval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.Beat(ctx)
			}
		}
	}()
}

// Beat：对所有上游执行一次心跳；网络调用在锁外进行
func (m *Manager) Beat(ctx context.Context) {
	m.mu.RLock()
	ps := append([]Provider(nil), m.order...)
	m.mu.RUnlock()
	results := make(map[string]status, len(ps))
	for _, p := range ps {
		err := p.Heartbeat(ctx)
		results[p.Name()] = newStatus(err)
		if err != nil {
			logger.L().Debug("provider_heartbeat_fail", "name", p.Name(), "err", err)
			metrics.ProviderHeartbeatTotal.WithLabelValues(p.Name(), "fail").Inc()
		} else {
			metrics.ProviderHeartbeatTotal.WithLabelValues(p.Name(), "ok").Inc()
		}
	}
	m.mu.Lock()
	for k, v := range results {
		m.st[k] = v
	}
	m.mu.Unlock()
}

// Geocode：实现 geocode.Geocoder
func (m *Manager) Geocode(ctx context.Context, req geocode.Request) (*geocode.Result, error) {
	hs := m.Healthy()
	if len(hs) == 0 {
		return nil, &apperr.ServiceError{Provider: "providers", Status: "NO_PROVIDER", Message: "no healthy geocoding provider"}
	}
	p := hs[0]
	r, err := p.Geocode(ctx, req)
	if err != nil {
		if se, ok := apperr.AsService(err); ok {
			logger.L().Error("geocode_upstream_error", "provider", p.Name(), "status", se.Status, "code", se.Code, "msg", se.Message)
		}
		return nil, err
	}
	return r, nil
}
