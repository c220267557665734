// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"zone-api/internal/api"
	"zone-api/internal/app"
	"zone-api/internal/config"
	"zone-api/internal/ipgeo"
	"zone-api/internal/logger"
	"zone-api/internal/maps"
	"zone-api/internal/metrics"
	"zone-api/internal/middleware"
	"zone-api/internal/utils"
	"zone-api/internal/version"
	"zone-api/internal/zones"
)

func main() {
	cfg := config.Load()
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	l.Debug("config_api_base", "base", cfg.APIBase)
	l.Debug("config_ui_dir", "dir", cfg.UIDist)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	// 文档注释：上游管理器初始化
	// 背景：按注册顺序选择第一个健康上游；后台心跳刷新健康状态，不在请求内重试。
	creds := maps.NewCredentials(cfg.Credentials())
	pm := app.Providers(ctx, cfg, creds)
	pm.Start(ctx)
	gc := app.Geocoder(pm, rc, cfg)

	// 背景：地图库加载在后台进行，加载完成前几何查询一律返回 false / 0
	loader := app.MapLoader(cfg, creds)
	if _, err := loader.Load(ctx, api.LoadKey(creds)); err != nil {
		l.Error("map_load_start_error", "err", err)
	}
	engine := maps.NewEngine(loader)

	svc := zones.NewService(repo, repo, gc, engine, cfg.Occupancy)
	app.ReassignOnLoad(loader, svc)
	locator := ipgeo.Open(cfg.GeoIPCityPath, cfg.DefaultCenter, ipgeo.WithRegionDB(cfg.IP2RegionV4Path, cfg.IP2RegionV6Path))
	defer locator.Close()

	apiHandler := api.BuildRoutes(api.Deps{
		Zones:       svc,
		Geocoder:    gc,
		Loader:      loader,
		Engine:      engine,
		Credentials: creds,
		Providers:   pm,
		Locator:     locator,
		AdminToken:  cfg.AdminToken,
		CORSOrigins: cfg.CORSOrigins,
	})

	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiHandler))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", http.FileServer(http.Dir(cfg.UIDist)))

	// NOTE: 向前端暴露 API 基础路径与地图脚本地址，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte(configJS(cfg, creds)))
	})

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.RateLimit(cfg.RateLimitEnabled, cfg.RateLimitQPS)(handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		l.Info("shutdown_begin")
		_ = s.Shutdown(sctx)
	}()

	if cfg.TLSEnabled {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "zone-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
		}
		// 可选：启动HTTP重定向到HTTPS（不改变HTTPS运行端口）
		if cfg.TLSRedirect {
			go func() {
				l.Info("http_redirect_listening", "addr", cfg.TLSRedirectAddr, "to", "https"+cfg.Addr)
				_ = http.ListenAndServe(cfg.TLSRedirectAddr, logger.AccessMiddleware(l)(utils.HTTPSRedirect(cfg.Addr)))
			}()
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath, "commit", version.Commit)
		if err := s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath); err != nil && err != http.ErrServerClosed {
			l.Error("listen_error", "err", err)
		}
		return
	}
	l.Info("listening", "addr", cfg.Addr, "commit", version.Commit)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		l.Error("listen_error", "err", err)
	}
}

// configJS：浏览器端引导脚本；未配置浏览器端密钥时不输出脚本地址
func configJS(cfg config.Config, creds *maps.Credentials) string {
	script := ""
	if k := creds.Get(maps.CredentialBrowser); k != "" {
		script = maps.ScriptURL(cfg.MapsScriptBase, k, cfg.MapsCallback, cfg.MapsLibraries)
	}
	lines := []string{
		"window.__API_BASE__='" + jsEscape(cfg.APIBase) + "'",
		"window.__COMMIT_SHA__='" + jsEscape(version.Commit) + "'",
		"window.__MAPS_SCRIPT_URL__='" + jsEscape(script) + "'",
	}
	return strings.Join(lines, "\n")
}

func jsEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "<", `\x3c`).Replace(s)
}
