package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/api"
	"github.com/MorseWayne/players_club/internal/cache"
	"github.com/MorseWayne/players_club/internal/config"
	"github.com/MorseWayne/players_club/internal/database"
	"github.com/MorseWayne/players_club/internal/limiter"
	"github.com/MorseWayne/players_club/internal/logger"
	mw "github.com/MorseWayne/players_club/internal/middleware"
	"github.com/MorseWayne/players_club/internal/notify"
	"github.com/MorseWayne/players_club/internal/repo"
	"github.com/MorseWayne/players_club/internal/router"
	"github.com/MorseWayne/players_club/internal/service"
	"github.com/MorseWayne/players_club/internal/storage"
)

// closer 关闭时释放的资源
type closer func(ctx context.Context) error

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, lg, nil
}

// initCatalogStore 按 DB_DRIVER 连接商品目录存储：mysql 启动时执行迁移，mongo 创建索引
func initCatalogStore(ctx context.Context, cfg *config.Config, lg *zap.Logger) (repo.ProductRepository, closer, error) {
	switch cfg.Database.Driver {
	case "mongo":
		m, err := database.NewMongo(ctx, cfg.Mongo, lg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize mongodb: %w", err)
		}
		if err := m.EnsureIndexes(ctx); err != nil {
			_ = m.Close(ctx)
			return nil, nil, fmt.Errorf("failed to ensure mongodb indexes: %w", err)
		}
		return repo.NewMongoProductRepository(m.DB), m.Close, nil

	default:
		db, err := database.New(cfg, lg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		// 在接收请求前完成迁移
		lg.Info("using migrations directory", zap.String("path", cfg.Migrations.Dir))
		if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		return repo.NewProductRepository(db.DB), func(context.Context) error { return db.Close() }, nil
	}
}

// initStateStore 初始化购物车、本地账本与幂等键共用的存储。
// CACHE_TYPE=redis 且连接成功时使用 Redis，并返回其客户端供限流器共享；否则退回进程内存储
func initStateStore(cfg *config.Config, lg *zap.Logger) (cache.Cache, redis.Cmdable, closer) {
	noop := func(context.Context) error { return nil }

	switch cfg.Cache.Type {
	case "redis":
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		rc, err := cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			lg.Warn("failed to connect to redis, falling back to memory store", zap.String("addr", addr), zap.Error(err))
			return cache.NewMemoryCache(), nil, noop
		}
		lg.Info("state store ready", zap.String("type", "redis"), zap.String("addr", addr))
		return rc, rc.Client(), func(context.Context) error { return rc.Close() }
	case "memory", "":
		lg.Info("state store ready", zap.String("type", "memory"))
	default:
		lg.Warn("unknown cache type, using memory store", zap.String("type", cfg.Cache.Type))
	}
	return cache.NewMemoryCache(), nil, noop
}

// staticPath 本地存储的公开前缀可能是完整 URL，静态路由只取路径部分
func staticPath(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Path == "" {
		return ""
	}
	return u.Path
}

// initDependencies 初始化应用依赖：仓储 -> 服务 -> API处理器
func initDependencies(
	ctx context.Context,
	cfg *config.Config,
	products repo.ProductRepository,
	store cache.Cache,
	redisClient redis.Cmdable,
	lg *zap.Logger,
) (*router.Dependencies, error) {
	if cfg.Cache.Enabled {
		products = repo.NewCachedProductRepository(products, store, cfg.Cache.TTL, lg)
		lg.Info("product cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
	}

	imageStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
	}
	images := storage.NewResolver(imageStore, lg)

	catalog := service.NewCatalogService(products, images, lg)
	ledger := service.NewLedgerService(repo.NewLedgerRepository(store), lg)
	carts := service.NewCartService(repo.NewCartRepository(store, cfg.Cache.CartTTL), catalog, ledger, cfg.App.PublicBaseURL, lg)
	checkout := service.NewCheckoutService(carts, catalog, ledger, notify.New(cfg.SendGrid, lg), cfg.Contact, cfg.App.PublicBaseURL, lg)

	jwtService := service.NewJWTService(cfg, lg)
	auth, err := service.NewAuthService(cfg.Admin, jwtService, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize admin auth: %w", err)
	}

	loginLimiter, err := limiter.New(redisClient, &limiter.Config{
		Rate:      cfg.RateLimit.LoginAttempts,
		Window:    cfg.RateLimit.LoginWindow,
		KeyPrefix: "players_club:ratelimit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize login limiter: %w", err)
	}

	idem := mw.DefaultIdempotencyConfig(store)
	idem.KeyPrefix = "idempotency:checkout"
	idem.Logger = lg

	deps := &router.Dependencies{
		ProductHandler: api.NewProductHandler(catalog, lg),
		CartHandler:    api.NewCartHandler(carts, checkout, lg),
		LedgerHandler:  api.NewLedgerHandler(ledger, ledger, catalog, lg),
		AuthHandler:    api.NewAuthHandler(auth, lg),
		UploadHandler:  api.NewUploadHandler(images, cfg.Storage.MaxUpload, lg),
		Routes: &router.RoutesConfig{
			AdminAuth:    mw.AdminAuth(jwtService, lg),
			LoginLimiter: limiter.LoginRateLimitMiddleware(loginLimiter, lg),
			Idempotency:  mw.IdempotencyMiddleware(idem),
		},
	}
	if local, ok := imageStore.(*storage.LocalStorage); ok {
		deps.StaticDir = local.Dir()
		deps.StaticURL = staticPath(local.BaseURL())
	}
	return deps, nil
}

// setupRoutes 设置路由和中间件
func setupRoutes(cfg *config.Config, deps *router.Dependencies, lg *zap.Logger) http.Handler {
	engine := router.New().Setup(cfg, deps, lg)

	// 构建中间件链：请求进入时执行顺序为 access log → CORS → timeout → recovery → request ID
	handler := mw.RequestID(engine)
	handler = mw.Recovery(lg)(handler)
	handler = mw.Timeout(cfg.App.RequestTimeout)(handler)
	handler = mw.CORS(cfg.CORS)(handler)
	handler = mw.AccessLog(lg)(handler)

	return handler
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, handler http.Handler, lg *zap.Logger) {
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	lg.Info("server starting", zap.String("addr", addr))
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server error", zap.Error(err))
			return
		}
	case sig := <-quit:
		lg.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("server shutdown error", zap.Error(err))
	}
	lg.Info("server exited")
}

func main() {
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx := context.Background()

	products, closeCatalog, err := initCatalogStore(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialize catalog store", zap.Error(err))
	}
	store, redisClient, closeStore := initStateStore(cfg, lg)

	deps, err := initDependencies(ctx, cfg, products, store, redisClient, lg)
	if err != nil {
		_ = closeCatalog(ctx)
		_ = closeStore(ctx)
		lg.Fatal("failed to initialize dependencies", zap.Error(err))
	}

	startServer(cfg, setupRoutes(cfg, deps, lg), lg)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	for name, c := range map[string]closer{"catalog": closeCatalog, "state store": closeStore} {
		if err := c(shutdownCtx); err != nil {
			lg.Error("failed to close resource", zap.String("resource", name), zap.Error(err))
		}
	}
}
