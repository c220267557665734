// 包 app：主服务与批处理工具共用的依赖组装
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"zone-api/internal/amap"
	"zone-api/internal/config"
	"zone-api/internal/geocode"
	"zone-api/internal/geocode/google"
	"zone-api/internal/logger"
	"zone-api/internal/maps"
	"zone-api/internal/migrate"
	"zone-api/internal/providers"
	"zone-api/internal/store"
	"zone-api/internal/utils"
	"zone-api/internal/zones"
)

// Repository：两个仓储接口加待编码查询，Postgres 与内存实现均满足
type Repository interface {
	zones.ZoneRepository
	zones.LocationRepository
	PendingLocations(ctx context.Context, limit int) ([]zones.Location, error)
}

// OpenStore：STORE=memory 时使用进程内仓储，否则连接 Postgres 并建表
func OpenStore(ctx context.Context, cfg config.Config) (Repository, func(), error) {
	if cfg.Store == "memory" {
		logger.L().Info("store_memory")
		return store.NewMemory(), func() {}, nil
	}
	db, err := utils.OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	logger.L().Info("db_open_ok", "host", cfg.Postgres.Host)
	return store.AttachDB(db), func() { _ = db.Close() }, nil
}

// Providers：按优先级注册 Google、AMap 与可选的远程地理编码函数
func Providers(ctx context.Context, cfg config.Config, creds *maps.Credentials) *providers.Manager {
	client := &http.Client{Timeout: cfg.GeocodeTimeout}
	pm := providers.NewManager(cfg.HeartbeatInterval)
	pm.Register(ctx, google.New(cfg.GoogleEndpoint, creds, client))
	pm.Register(ctx, amap.New("", creds, client))
	if cfg.RemoteEndpoint != "" {
		pm.Register(ctx, providers.NewHTTP("remote", cfg.RemoteEndpoint, cfg.RemoteToken, client))
	}
	return pm
}

// Geocoder：上游外包一层缓存；有 Redis 用 Redis，否则进程内 LRU
func Geocoder(pm *providers.Manager, rc *redis.Client, cfg config.Config) *geocode.Service {
	var cache geocode.Cache
	if rc != nil {
		cache = geocode.NewRedisCache(rc)
	} else {
		cache = geocode.NewMemoryCache(cfg.GeocodeCacheSize)
	}
	return geocode.NewService(pm, cache, cfg.GeocodeCacheTTL)
}

// MapLoader：MAPS_VENDOR_PROBE 且当前存在浏览器端密钥时真实拉取厂商脚本，否则使用本地几何引擎
// 约束：每次加载时按当前凭据选择拉取方式，运行期经 /maps/load 写入的密钥同样生效
func MapLoader(cfg config.Config, creds *maps.Credentials) *maps.Loader {
	local := maps.LocalFetcher()
	vendor := maps.HTTPFetcher(&http.Client{Timeout: cfg.MapsLoadTimeout}, cfg.MapsScriptBase, cfg.MapsCallback, cfg.MapsLibraries)
	fetch := func(ctx context.Context, key string) error {
		if cfg.MapsVendorProbe && creds.Has(maps.CredentialBrowser) {
			return vendor(ctx, key)
		}
		return local(ctx, key)
	}
	return maps.NewLoader(fetch,
		maps.WithTimeout(cfg.MapsLoadTimeout),
		maps.WithObserver(func(key string, s maps.State) {
			logger.L().Info("map_state", "state", s.String())
		}),
	)
}

// ReassignOnLoad：地图库每次进入 Loaded 时重算全部归属，补齐未就绪期间跳过的分配
func ReassignOnLoad(l *maps.Loader, svc *zones.Service) {
	l.OnLoaded(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := svc.ReassignAll(ctx)
		if err != nil {
			logger.L().Error("zone_reassign_error", "trigger", "map_loaded", "err", err)
			return
		}
		logger.L().Info("zone_reassign_on_load", "changed", n)
	})
}
