// 批处理工具：为尚未定位的位置重新地理编码，完成后按当前区域重算归属
package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"zone-api/internal/api"
	"zone-api/internal/app"
	"zone-api/internal/apperr"
	"zone-api/internal/config"
	"zone-api/internal/logger"
	"zone-api/internal/maps"
	"zone-api/internal/utils"
	"zone-api/internal/zones"
)

// 文档注释：简单令牌桶限流（每分钟）
// 背景：受上游配额限制，控制每分钟最大请求数；超出时阻塞等待下一分钟刷新。
type minuteLimiter struct {
	capacity int
	used     int
	lastMin  int64
	now      func() time.Time
	mu       sync.Mutex
}

func newMinuteLimiter(perMin int) *minuteLimiter {
	return &minuteLimiter{capacity: perMin, now: time.Now}
}

func (ml *minuteLimiter) allow() bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	nowMin := ml.now().Unix() / 60
	if ml.lastMin != nowMin {
		ml.lastMin = nowMin
		ml.used = 0
	}
	if ml.used < ml.capacity {
		ml.used++
		return true
	}
	return false
}

// wait：阻塞直到放行或 ctx 结束
func (ml *minuteLimiter) wait(ctx context.Context) error {
	for !ml.allow() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
	return nil
}

type locator interface {
	RegeocodeLocation(ctx context.Context, id string) (*zones.Location, error)
}

type summary struct {
	ok, notFound, failed int64
}

// run：固定数量 worker 消费 id，逐条限流后重新编码
func run(ctx context.Context, svc locator, ids []string, workers int, limiter *minuteLimiter) summary {
	var s summary
	jobs := make(chan string, workers*4)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := limiter.wait(ctx); err != nil {
					atomic.AddInt64(&s.failed, 1)
					continue
				}
				jctx, cancel := context.WithTimeout(ctx, 10*time.Second)
				_, err := svc.RegeocodeLocation(jctx, id)
				cancel()
				switch {
				case err == nil:
					atomic.AddInt64(&s.ok, 1)
				case apperr.IsNotFound(err):
					atomic.AddInt64(&s.notFound, 1)
					logger.L().Warn("regeocode_not_found", "id", id)
				default:
					atomic.AddInt64(&s.failed, 1)
					logger.L().Error("regeocode_error", "id", id, "err", err)
				}
			}
		}()
	}
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	return s
}

// readIDs：每行一个位置 id，忽略空行
func readIDs(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024), 1024*1024)
	var ids []string
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			ids = append(ids, line)
		}
	}
	return ids, sc.Err()
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, e := strconv.Atoi(v); e == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	cfg := config.Load()
	l := logger.Setup()
	l.Info("regeocode_start")
	ctx := context.Background()

	repo, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		l.Error("store_open_error", "err", err)
		os.Exit(1)
	}
	defer closeStore()
	rc := utils.OpenRedis(ctx, cfg.Redis)
	if rc != nil {
		defer rc.Close()
	}

	creds := maps.NewCredentials(cfg.Credentials())
	gc := app.Geocoder(app.Providers(ctx, cfg, creds), rc, cfg)
	loader := app.MapLoader(cfg, creds)
	h, err := loader.Load(ctx, api.LoadKey(creds))
	if err == nil {
		wctx, cancel := context.WithTimeout(ctx, cfg.MapsLoadTimeout)
		if err := h.Wait(wctx); err != nil {
			l.Warn("map_not_loaded", "err", err)
		}
		cancel()
	}
	svc := zones.NewService(repo, repo, gc, maps.NewEngine(loader), cfg.Occupancy)
	app.ReassignOnLoad(loader, svc)

	// 并发与限流
	workers := envInt("REGEOCODE_WORKERS", 4)
	ratePerMin := envInt("REGEOCODE_RATE_LIMIT_PER_MIN", 120)

	// 输入源：默认取库中未定位的位置；可选文件提供 id 列表
	var ids []string
	if p := os.Getenv("REGEOCODE_INPUT_FILE"); p != "" {
		f, err := os.Open(p)
		if err != nil {
			l.Error("input_open_error", "err", err)
			os.Exit(1)
		}
		ids, err = readIDs(f)
		f.Close()
		if err != nil {
			l.Error("input_read_error", "err", err)
		}
	} else {
		pending, err := repo.PendingLocations(ctx, envInt("REGEOCODE_LIMIT", 1000))
		if err != nil {
			l.Error("pending_query_error", "err", err)
			os.Exit(1)
		}
		for _, p := range pending {
			ids = append(ids, p.ID)
		}
	}

	s := run(ctx, svc, ids, workers, newMinuteLimiter(ratePerMin))
	changed, err := svc.ReassignAll(ctx)
	if err != nil {
		l.Error("reassign_error", "err", err)
	}
	l.Info("regeocode_done", "total", len(ids), "ok", s.ok, "not_found", s.notFound, "failed", s.failed, "reassigned", changed)
}
