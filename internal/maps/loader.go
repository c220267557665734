package maps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"zone-api/internal/apperr"
	"zone-api/internal/logger"
	"zone-api/internal/metrics"
)

// State：Unloaded → Loading → Loaded | Failed
type State int32

const (
	Unloaded State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unloaded"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ErrSuperseded：句柄被其它凭据的加载替换
var ErrSuperseded = errors.New("map load superseded by another credential")

// FetchFunc：执行一次脚本加载；key 为凭据
type FetchFunc func(ctx context.Context, key string) error

// Handle：一次加载的 future，同一凭据在替换前只存在一个
type Handle struct {
	key    string
	done   chan struct{}
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	err   error
}

func (h *Handle) Key() string { return h.key }

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Done：加载结束（成功、失败或被替换）后关闭
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait：等待加载结束；ctx 取消只释放等待方，不中止加载
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish：仅第一次写入生效
func (h *Handle) finish(s State, err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Loading {
		return false
	}
	h.state = s
	h.err = err
	close(h.done)
	return true
}

// Loader：按凭据记忆的地图库加载器
// 约束：同一时刻只有一个加载在途；相同凭据重复调用为空操作；不同凭据会拆除旧加载后重新开始
type Loader struct {
	fetch   FetchFunc
	timeout time.Duration
	observe func(key string, s State)

	mu     sync.Mutex
	cur    *Handle
	loaded []func()
}

type Option func(*Loader)

// WithTimeout：单次加载超时，默认 15s
func WithTimeout(d time.Duration) Option { return func(l *Loader) { l.timeout = d } }

// WithObserver：状态迁移回调（Loading/Loaded/Failed），在迁移发生的协程中同步调用
func WithObserver(fn func(key string, s State)) Option { return func(l *Loader) { l.observe = fn } }

func NewLoader(fetch FetchFunc, opts ...Option) *Loader {
	l := &Loader{fetch: fetch, timeout: 15 * time.Second}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load：启动或复用加载
func (l *Loader) Load(ctx context.Context, key string) (*Handle, error) {
	if key == "" {
		return nil, apperr.Validation("credential", "map credential is required")
	}
	l.mu.Lock()
	if l.cur != nil && l.cur.key == key {
		h := l.cur
		l.mu.Unlock()
		logger.L().Debug("map_load_reuse", "state", h.State().String())
		return h, nil
	}
	if l.cur != nil {
		l.teardownLocked("credential_changed")
	}
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	h := &Handle{key: key, done: make(chan struct{}), cancel: cancel, state: Loading}
	l.cur = h
	l.mu.Unlock()

	l.notify(key, Loading)
	go l.run(lctx, h)
	return h, nil
}

func (l *Loader) run(ctx context.Context, h *Handle) {
	defer h.cancel()
	t0 := time.Now()
	err := l.fetch(ctx, h.key)
	if err != nil {
		if h.finish(Failed, err) {
			logger.L().Error("map_load_failed", "err", err, "duration_ms", time.Since(t0).Milliseconds())
			l.notify(h.key, Failed)
		}
		return
	}
	if h.finish(Loaded, nil) {
		logger.L().Info("map_load_ok", "duration_ms", time.Since(t0).Milliseconds())
		l.notify(h.key, Loaded)
		l.mu.Lock()
		hooks := append([]func(){}, l.loaded...)
		l.mu.Unlock()
		for _, fn := range hooks {
			fn()
		}
	}
}

// OnLoaded：注册进入 Loaded 时的回调，在加载协程中同步执行；注册时已是 Loaded 则立即执行一次
func (l *Loader) OnLoaded(fn func()) {
	l.mu.Lock()
	l.loaded = append(l.loaded, fn)
	ready := l.cur != nil && l.cur.State() == Loaded
	l.mu.Unlock()
	if ready {
		fn()
	}
}

func (l *Loader) notify(key string, s State) {
	metrics.MapLoadsTotal.WithLabelValues(s.String()).Inc()
	if l.observe != nil {
		l.observe(key, s)
	}
}

func (l *Loader) teardownLocked(reason string) {
	old := l.cur
	l.cur = nil
	old.cancel()
	old.finish(Failed, ErrSuperseded)
	logger.L().Info("map_load_teardown", "reason", reason, "state", old.State().String())
}

// Unload：拆除当前加载，允许用户手动重试
func (l *Loader) Unload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur != nil {
		l.teardownLocked("unload")
	}
}

// Current：当前句柄，未加载时为 nil
func (l *Loader) Current() *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cur
}

func (l *Loader) State() State {
	h := l.Current()
	if h == nil {
		return Unloaded
	}
	return h.State()
}

func (l *Loader) Ready() bool { return l.State() == Loaded }

// HTTPFetcher：以 GET 拉取厂商脚本作为加载，非 200 视为失败
func HTTPFetcher(client *http.Client, base, callback string, libs []string) FetchFunc {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return func(ctx context.Context, key string) error {
		u := ScriptURL(base, key, callback, libs)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return &apperr.ServiceError{Provider: "maps", Message: "script fetch failed", Err: err}
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return &apperr.ServiceError{Provider: "maps", Code: resp.StatusCode, Message: fmt.Sprintf("script fetch returned %d", resp.StatusCode)}
		}
		return nil
	}
}

// LocalFetcher：不依赖厂商脚本，立即视为加载成功（本地几何引擎）
func LocalFetcher() FetchFunc {
	return func(ctx context.Context, key string) error { return nil }
}
