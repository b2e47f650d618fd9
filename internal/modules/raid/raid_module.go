package raid

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/liangdas/mqant/conf"
	"github.com/liangdas/mqant/module"
	basemodule "github.com/liangdas/mqant/module/base"
	"github.com/liangdas/mqant/server"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"

	custommiddleware "tsu-raid/internal/middleware"
	"tsu-raid/internal/modules/raid/engine"
	"tsu-raid/internal/modules/raid/handler"
	"tsu-raid/internal/modules/raid/service"
	"tsu-raid/internal/modules/raid/tasks"
	"tsu-raid/internal/pkg/config"
	"tsu-raid/internal/pkg/i18n"
	"tsu-raid/internal/pkg/log"
	"tsu-raid/internal/pkg/metrics"
	natsclient "tsu-raid/internal/pkg/nats"
	"tsu-raid/internal/pkg/notify"
	redisClient "tsu-raid/internal/pkg/redis"
	"tsu-raid/internal/pkg/response"
	"tsu-raid/internal/pkg/trace"
	"tsu-raid/internal/pkg/validator"
	"tsu-raid/internal/repository/impl"
)

type RaidModule struct {
	basemodule.BaseModule
	cfg            *config.RaidServerConfig
	logger         log.Logger
	nc             *nats.Conn
	natsHealth     *natsclient.HealthChecker
	db             *sql.DB
	redis          *redisClient.Client
	httpServer     *echo.Echo
	raidService    *service.RaidService
	raidHandler    *handler.RaidHandler
	raidRPCHandler *handler.RaidRPCHandler
	scheduledTask  *tasks.ScheduledRaidTask
	bidSub         notify.Subscription
	respWriter     response.Writer

	stopCh     chan struct{}
	cancelBack context.CancelFunc
}

// GetType returns module type
func (m *RaidModule) GetType() string {
	return "raid"
}

// Version returns module version
func (m *RaidModule) Version() string {
	return "1.0.0"
}

// OnAppConfigurationLoaded 当App初始化时调用
func (m *RaidModule) OnAppConfigurationLoaded(app module.App) {
	m.BaseModule.OnAppConfigurationLoaded(app)
}

// OnInit module initialization
func (m *RaidModule) OnInit(app module.App, settings *conf.ModuleSettings) {
	metrics.SetServiceName("raid")
	// TTL = 30s, 心跳间隔 = 15s (TTL 必须大于心跳间隔)
	m.BaseModule.OnInit(m, app, settings,
		server.RegisterInterval(15*time.Second),
		server.RegisterTTL(30*time.Second),
	)

	m.logger = log.GetLogger().With("module", "raid")
	m.stopCh = make(chan struct{})

	// 0. 配置：环境变量优先，其次模块 Settings
	if m.cfg == nil {
		cfg, err := config.LoadRaidServerConfig()
		if err != nil {
			panic(fmt.Sprintf("Failed to load raid config: %v", err))
		}
		m.cfg = cfg
	}
	m.applySettings(settings)

	// 1. Initialize database connection
	if err := m.initDatabase(); err != nil {
		panic(fmt.Sprintf("Failed to initialize database: %v", err))
	}

	// 2. Initialize Redis (全局锁 + 报名名单)
	if err := m.initRedis(); err != nil {
		panic(fmt.Sprintf("Failed to initialize Redis: %v", err))
	}

	// 3. Initialize response writer
	m.respWriter = response.NewResponseHandler(m.logger, m.cfg.Environment)

	// 4. Initialize Services and Handlers
	m.initServicesAndHandlers()

	// 5. Initialize HTTP server + routes
	m.initHTTPServer()
	m.setupRoutes()

	// 6. Setup RPC methods
	m.setupRPCMethods()

	// 7. NATS 出价订阅
	m.subscribeBids()

	// 8. Start cron tasks
	m.startCronTasks()

	// 9. Start HTTP server in background
	go m.startHTTPServer()

	m.GetServer().Options()
}

// applySettings 配置文件中的 database_url / spawn_cron 仅在环境变量缺省时生效
func (m *RaidModule) applySettings(settings *conf.ModuleSettings) {
	if settings == nil || settings.Settings == nil {
		return
	}
	if v, ok := settings.Settings["database_url"].(string); ok && v != "" && m.cfg.DatabaseURL == "" {
		m.cfg.DatabaseURL = v
	}
	if v, ok := settings.Settings["spawn_cron"].(string); ok && m.cfg.SpawnCron == "" {
		m.cfg.SpawnCron = v
	}
}

// initDatabase initializes database connection
func (m *RaidModule) initDatabase() error {
	if m.cfg.DatabaseURL == "" {
		return fmt.Errorf("TSU_RAID_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", m.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(m.cfg.MaxOpenConns)
	db.SetMaxIdleConns(m.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(m.cfg.ConnMaxLifetime)

	m.db = db
	m.logger.Info("[Raid Module] Database initialized successfully")

	// 启动数据库连接池监控
	go metrics.ObserveDBPool(db, "postgres", 30*time.Second, m.stopCh)
	return nil
}

// initRedis initializes Redis client
func (m *RaidModule) initRedis() error {
	client, err := redisClient.NewClient(redisClient.Config{
		Host:     m.cfg.RedisHost,
		Port:     m.cfg.RedisPort,
		Password: m.cfg.RedisPassword,
		DB:       m.cfg.RedisDB,
	}, metrics.GetServiceName())
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.redis = client
	m.logger.Info("[Raid Module] Redis connected successfully",
		"addr", net.JoinHostPort(m.cfg.RedisHost, strconv.Itoa(m.cfg.RedisPort)),
		"db", m.cfg.RedisDB)
	return nil
}

// initServicesAndHandlers 组装 raid 服务
func (m *RaidModule) initServicesAndHandlers() {
	seed := m.cfg.Seed
	if seed == 0 {
		seed = engine.NewSeed()
	}
	m.logger.Info("[Raid Module] RNG seed", "seed", seed)

	var sink engine.EventSink
	if m.nc != nil {
		sink = service.NewNATSSink()
	}

	m.raidService = service.NewRaidService(service.Deps{
		Roster:      service.NewRedisRoster(m.redis, 0),
		Profiles:    impl.NewRaidProfileRepository(m.db),
		Reports:     impl.NewRaidReportRepository(m.db),
		Lock:        redisClient.NewLeaseLock(m.redis, redisClient.DefaultRaidLockKey, m.cfg.LockTTL),
		Clock:       engine.RealClock{},
		RNG:         engine.NewRNG(seed),
		Sink:        sink,
		Logger:      m.logger,
		PacingScale: m.cfg.PacingScale,
		ServiceName: metrics.GetServiceName(),
	})

	m.raidHandler = handler.NewRaidHandler(m.raidService, m.respWriter)
	m.raidRPCHandler = handler.NewRaidRPCHandler(m.raidService)
}

// initHTTPServer initializes HTTP server
func (m *RaidModule) initHTTPServer() {
	m.httpServer = echo.New()
	m.httpServer.HideBanner = true
	m.httpServer.HidePort = true
	m.httpServer.Validator = validator.New()

	// ========== 中间件配置（顺序很重要！） ==========

	// 1. TraceID 中间件 - 最先执行
	m.httpServer.Use(trace.Middleware())

	// 2. i18n 中间件 - 语言检测和设置
	m.httpServer.Use(i18n.Middleware())

	// 3. Logging 中间件（依赖 TraceID），跳过探活与指标
	m.httpServer.Use(custommiddleware.LoggingMiddleware(m.logger, "/health", "/metrics"))

	// 4. Recovery + Error 中间件
	m.httpServer.Use(custommiddleware.RecoveryMiddleware(m.respWriter, m.logger))
	m.httpServer.Use(custommiddleware.ErrorMiddleware(m.respWriter, m.logger))

	// 5. 安全相关
	m.httpServer.Use(custommiddleware.CORSMiddleware())
	m.httpServer.Use(custommiddleware.SecurityMiddleware())

	m.logger.Info("[Raid Module] HTTP server initialized")
}

// setupRoutes configures HTTP routes
func (m *RaidModule) setupRoutes() {
	v1 := m.httpServer.Group("/api/v1")
	handler.RegisterRoutes(v1, m.raidHandler, handler.RouteOptions{
		AdminToken: m.cfg.AdminToken,
		RespWriter: m.respWriter,
		Logger:     m.logger,
	})
	if m.cfg.AdminToken == "" {
		m.logger.Warn("[Raid Module] RAID_ADMIN_TOKEN 未配置，管理接口将拒绝所有请求")
	}

	// Health check
	m.httpServer.GET("/health", func(c echo.Context) error {
		status := map[string]interface{}{
			"status": "ok",
			"module": "raid",
		}
		if m.natsHealth != nil {
			status["nats"] = m.natsHealth.IsHealthy()
		}
		return c.JSON(200, status)
	})

	// Prometheus metrics endpoint
	m.httpServer.GET("/metrics", metrics.EchoHandler())

	m.logger.Info("[Raid Module] Routes configured", "prefix", "/api/v1/raid")
}

// setupRPCMethods 注册 RPC 方法，供 Admin Server 等模块调用
func (m *RaidModule) setupRPCMethods() {
	m.GetServer().RegisterGO("SpawnRaid", m.raidRPCHandler.SpawnRaid)
	m.GetServer().RegisterGO("GetRaidStatus", m.raidRPCHandler.GetRaidStatus)
	m.GetServer().RegisterGO("GetLastRaidResult", m.raidRPCHandler.GetLastRaidResult)

	m.logger.Info("[Raid Module] RPC methods registered",
		"methods", []string{"SpawnRaid", "GetRaidStatus", "GetLastRaidResult"})
}

// subscribeBids 订阅 NATS 出价，作为 HTTP 出价之外的入口
func (m *RaidModule) subscribeBids() {
	if m.nc == nil {
		m.logger.Warn("[Raid Module] NATS 未连接，跳过出价订阅与事件发布")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelBack = cancel
	m.natsHealth = natsclient.NewHealthChecker(m.nc, 10*time.Second)
	go m.natsHealth.Start(ctx)

	sub, err := m.raidService.SubscribeBids(m.cfg.BidSubject)
	if err != nil {
		m.logger.Error("[Raid Module] 订阅出价失败", err, "subject", m.cfg.BidSubject)
		return
	}
	m.bidSub = sub
	m.logger.Info("[Raid Module] 已订阅出价", "subject", m.cfg.BidSubject)
}

// startCronTasks 配置了 RAID_SPAWN_CRON 时定时开启 raid
func (m *RaidModule) startCronTasks() {
	if m.cfg.SpawnCron == "" {
		return
	}
	m.scheduledTask = tasks.NewScheduledRaidTask(m.raidService, m.cfg.SpawnCron, service.SpawnRequest{
		Preset: m.cfg.SpawnPreset,
		BossHP: m.cfg.SpawnBossHP,
	}, m.logger)
	if err := m.scheduledTask.Start(); err != nil {
		m.scheduledTask = nil
	}
}

// startHTTPServer starts HTTP server
func (m *RaidModule) startHTTPServer() {
	addr := net.JoinHostPort(m.cfg.HTTPHost, strconv.Itoa(m.cfg.HTTPPort))
	m.logger.Info("[Raid Module] Starting HTTP server", "addr", addr)

	if err := m.httpServer.Start(addr); err != nil {
		m.logger.Warn("[Raid Module] HTTP server stopped", "error", err)
	}
}

// Run module run
func (m *RaidModule) Run(closeSig chan bool) {
	m.logger.Info("[Raid Module] Started successfully")
	<-closeSig
}

// OnDestroy module destroy
func (m *RaidModule) OnDestroy() {
	if m.scheduledTask != nil {
		m.scheduledTask.Stop()
	}

	if m.bidSub != nil {
		if err := m.bidSub.Unsubscribe(); err != nil {
			m.logger.Warn("[Raid Module] 取消出价订阅失败", "error", err)
		}
	}

	if m.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.httpServer.Shutdown(ctx); err != nil {
			m.logger.Warn("[Raid Module] Failed to close HTTP server", "error", err)
		}
		cancel()
	}

	// 取消进行中的 raid 并等待结算落库
	if m.raidService != nil {
		m.raidService.Close()
	}

	if m.cancelBack != nil {
		m.cancelBack()
	}
	if m.stopCh != nil {
		close(m.stopCh)
	}

	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			m.logger.Warn("[Raid Module] Failed to close Redis", "error", err)
		}
	}

	if m.db != nil {
		if err := m.db.Close(); err != nil {
			m.logger.Warn("[Raid Module] Failed to close database", "error", err)
		}
	}

	m.BaseModule.OnDestroy()
	m.logger.Info("[Raid Module] Destroyed")
}

// Module creates Raid module instance；cfg 为空时在 OnInit 中从环境变量读取
func Module(cfg *config.RaidServerConfig, nc *nats.Conn) module.Module {
	return &RaidModule{cfg: cfg, nc: nc}
}
