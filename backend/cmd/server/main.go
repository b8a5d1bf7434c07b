package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Sergio-AB-dev/Freya-App/backend/config"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/api/handler"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/api/router"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/repository"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/scheduler"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/service"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/database"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/jwt"
	applogger "github.com/Sergio-AB-dev/Freya-App/backend/pkg/logger"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/memstore"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/redis"
)

// appStore Redis 与进程内存储的公共能力
type appStore interface {
	service.Store
	router.Store
	Close() error
}

func main() {
	// 0. 加载 .env（不存在时忽略）
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("FREYA_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库并迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（失败时降级为进程内存储，不中断启动）
	store := newStore(cfg, logger)

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, store, logger)
	h := handler.NewHandler(cfg, svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, store, logger)

	// 8. 定时任务
	var sched *scheduler.Scheduler
	if cfg.Feature.ReminderDigestEnabled {
		sched = scheduler.New(&cfg.Scheduler, svc.Reminder, store, logger)
		if err := sched.Start(); err != nil {
			logger.Error("定时任务启动失败", zap.Error(err))
			sched = nil
		}
	}

	// 9. 启动 HTTP 服务器（优雅关闭）
	// SSE 长连接不设置 WriteTimeout
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	if sched != nil {
		sched.Stop()
	}

	// 先关闭存储，结束所有 SSE 订阅
	if err := store.Close(); err != nil {
		logger.Warn("关闭存储异常", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	logger.Info("服务器已关闭")
}

// newStore Redis 未启用或连接失败时使用进程内存储
func newStore(cfg *config.Config, logger *zap.Logger) appStore {
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err == nil {
			return rdb
		}
		logger.Warn("Redis 连接失败，降级为进程内存储（仅支持单实例部署）", zap.Error(err))
	}
	logger.Info("使用进程内存储")
	return memstore.New()
}
