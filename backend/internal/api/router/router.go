package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sergio-AB-dev/Freya-App/backend/config"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/api/handler"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/api/middleware"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/jwt"
)

const (
	maxBodyBytes      = 1 << 20
	loginRateLimit    = 10
	loginRateWindow   = time.Minute
	defaultIdemWindow = 10 * time.Minute
)

// Store 路由层依赖的存储能力（Redis 或进程内实现）
type Store interface {
	middleware.TokenBlacklist
	middleware.KeyClaimer
	middleware.RateLimiter
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, store Store, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	handler.RegisterValidatorTagNames()

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	idemTTL := cfg.Auth.IdempotencyTTL
	if idemTTL <= 0 {
		idemTTL = defaultIdemWindow
	}

	// 部署在子路径下时所有路由挂在 BasePath 下
	base := r.Group(cfg.Server.BasePath)

	// ── 健康检查 ──
	base.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := base.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(store, loginRateLimit, loginRateWindow), h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, store))
		authorized.Use(middleware.Idempotency(store, idemTTL))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.GET("/auth/session/stream", h.Auth.StreamSession)

			// 科目与成绩
			subjects := authorized.Group("/subjects")
			{
				subjects.GET("", h.Subject.ListSubjects)
				subjects.GET("/stream", h.Subject.StreamSubjects)
				subjects.GET("/:id", h.Subject.GetSubject)
				subjects.POST("", h.Subject.CreateSubject)
				subjects.DELETE("/:id", h.Subject.DeleteSubject)
				subjects.POST("/:id/grades", h.Subject.AddGrade)
				subjects.PUT("/:id/grades/:gradeId", h.Subject.UpdateGrade)
				subjects.DELETE("/:id/grades/:gradeId", h.Subject.DeleteGrade)
			}

			// 提醒
			reminders := authorized.Group("/reminders")
			{
				reminders.GET("", h.Reminder.ListReminders)
				reminders.GET("/stream", h.Reminder.StreamReminders)
				reminders.POST("", h.Reminder.CreateReminder)
				reminders.PUT("/:id", h.Reminder.UpdateReminder)
				reminders.PATCH("/:id/toggle", h.Reminder.ToggleReminder)
				reminders.DELETE("/:id", h.Reminder.DeleteReminder)
			}

			// 笔记（仅本人可见）
			notes := authorized.Group("/notes")
			{
				notes.GET("", h.Note.ListNotes)
				notes.POST("", h.Note.CreateNote)
				notes.POST("/:id/unlock", h.Note.UnlockNote)
				notes.PUT("/:id", h.Note.UpdateNote)
				notes.DELETE("/:id", h.Note.DeleteNote)
			}

			authorized.GET("/settings", h.Settings.GetSettings)
			authorized.PUT("/settings", h.Settings.UpdateSettings)

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/grades", h.Export.ExportGrades)
				export.GET("/reminders.ics", h.Export.ExportReminders)
			}
		}
	}

	return r
}
