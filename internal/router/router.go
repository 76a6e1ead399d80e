package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"countdown/backend/internal/handler"
	"countdown/backend/internal/middleware"
	"countdown/backend/internal/service"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth       *handler.AuthHandler
	Timers     *handler.TimerHandler
	Pomodoro   *handler.PomodoroHandler
	Stopwatch  *handler.StopwatchHandler
	Events     *handler.EventHandler
	Embed      *handler.EmbedHandler
	Settings   *handler.SettingsHandler
	WorldClock *handler.WorldClockHandler
	Share      *handler.ShareHandler
	Stream     *handler.StreamHandler
}

type Options struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustedProxies may set X-Forwarded-For. Empty means the peer address is
	// the client IP used for rate limiting.
	TrustedProxies []string
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func New(authService *service.AuthService, h Handlers, opts Options) *gin.Engine {
	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		slog.Warn("Ignoring invalid trusted proxies", "proxies", opts.TrustedProxies, "error", err)
		_ = engine.SetTrustedProxies(nil)
	}
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(opts.CORSOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	api := engine.Group("/api")
	api.Use(middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)

	shareLinks := api.Group("/share")
	shareLinks.POST("/timer", h.Share.EncodeTimer)
	shareLinks.GET("/timer", h.Share.DecodeTimer)
	shareLinks.POST("/event", h.Share.EncodeEvent)
	shareLinks.GET("/event", h.Share.DecodeEvent)
	shareLinks.POST("/embed", h.Share.EncodeEmbed)

	embed := api.Group("/embed")
	embed.POST("", h.Embed.Open)
	embed.GET("/:id", h.Embed.Get)
	embed.POST("/:id/start", h.Embed.Start)
	embed.POST("/:id/pause", h.Embed.Pause)
	embed.POST("/:id/reset", h.Embed.Reset)
	embed.DELETE("/:id", h.Embed.Delete)

	owner := api.Group("")
	owner.Use(middleware.Auth(authService))

	timers := owner.Group("/timers")
	timers.GET("", h.Timers.List)
	timers.POST("", h.Timers.Create)
	timers.GET("/:id", h.Timers.Get)
	timers.PUT("/:id", h.Timers.Update)
	timers.DELETE("/:id", h.Timers.Delete)
	timers.POST("/:id/start", h.Timers.Start)
	timers.POST("/:id/pause", h.Timers.Pause)
	timers.POST("/:id/reset", h.Timers.Reset)

	alarms := owner.Group("/alarms")
	alarms.GET("", h.Timers.Alarms)
	alarms.DELETE("", h.Timers.DismissAllAlarms)
	alarms.DELETE("/:id", h.Timers.DismissAlarm)
	alarms.POST("/reset", h.Timers.ResetAndDismissAll)

	pomodoro := owner.Group("/pomodoro")
	pomodoro.GET("/state", h.Pomodoro.GetState)
	pomodoro.POST("/start", h.Pomodoro.Start)
	pomodoro.POST("/pause", h.Pomodoro.Pause)
	pomodoro.POST("/reset", h.Pomodoro.Reset)
	pomodoro.POST("/skip", h.Pomodoro.Skip)
	pomodoro.PUT("/config", h.Pomodoro.UpdateConfig)
	pomodoro.GET("/history", h.Pomodoro.GetHistory)
	pomodoro.DELETE("/history", h.Pomodoro.ClearHistory)

	stopwatch := owner.Group("/stopwatch")
	stopwatch.GET("", h.Stopwatch.GetState)
	stopwatch.POST("/start", h.Stopwatch.Start)
	stopwatch.POST("/pause", h.Stopwatch.Pause)
	stopwatch.POST("/reset", h.Stopwatch.Reset)
	stopwatch.POST("/lap", h.Stopwatch.Lap)

	events := owner.Group("/events")
	events.GET("", h.Events.List)
	events.POST("", h.Events.Create)
	events.GET("/:id", h.Events.Get)
	events.PUT("/:id", h.Events.Update)
	events.DELETE("/:id", h.Events.Delete)

	settings := owner.Group("/settings")
	settings.GET("", h.Settings.Get)
	settings.PUT("", h.Settings.Update)
	settings.PATCH("", h.Settings.Update)

	clocks := owner.Group("/worldclocks")
	clocks.GET("", h.WorldClock.List)
	clocks.POST("", h.WorldClock.Create)
	clocks.POST("/reorder", h.WorldClock.Reorder)
	clocks.DELETE("/:id", h.WorldClock.Delete)

	owner.GET("/stream", h.Stream.Stream)

	return engine
}
