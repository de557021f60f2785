package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/lovably74/SmartCON-sub001/internal/actorctx"
	"github.com/lovably74/SmartCON-sub001/internal/audit"
	auditdomain "github.com/lovably74/SmartCON-sub001/internal/audit/domain"
	"github.com/lovably74/SmartCON-sub001/internal/config"
	"github.com/lovably74/SmartCON-sub001/internal/notification"
	notifdomain "github.com/lovably74/SmartCON-sub001/internal/notification/domain"
	"github.com/lovably74/SmartCON-sub001/internal/observability"
	"github.com/lovably74/SmartCON-sub001/internal/ratelimit"
	"github.com/lovably74/SmartCON-sub001/internal/reminder"
	"github.com/lovably74/SmartCON-sub001/internal/rule"
	ruledomain "github.com/lovably74/SmartCON-sub001/internal/rule/domain"
	"github.com/lovably74/SmartCON-sub001/internal/settings"
	settingsdomain "github.com/lovably74/SmartCON-sub001/internal/settings/domain"
	"github.com/lovably74/SmartCON-sub001/internal/stats"
	"github.com/lovably74/SmartCON-sub001/internal/subscription"
	subscriptiondomain "github.com/lovably74/SmartCON-sub001/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	rule.Module,
	settings.Module,
	audit.Module,
	notification.Module,
	subscription.Module,
	stats.Module,
	ratelimit.Module,
	reminder.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.GinLogging(log))
	r.Use(observability.GinTracing(obsCfg.ServiceName))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, obsCfg observability.Config) *gin.Engine {
	return NewEngine(log, obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	ruleSvc         ruledomain.Service
	settingsSvc     settingsdomain.Service
	subscriptionSvc subscriptiondomain.Service
	auditSvc        auditdomain.Service
	notificationSvc notifdomain.Service
	statsSvc        stats.Service
	submitLimiter   *ratelimit.SubmissionLimiter
	obsMetrics      *observability.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	RuleSvc         ruledomain.Service
	SettingsSvc     settingsdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	AuditSvc        auditdomain.Service
	NotificationSvc notifdomain.Service
	StatsSvc        stats.Service
	SubmitLimiter   *ratelimit.SubmissionLimiter `optional:"true"`
	ObsMetrics      *observability.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		ruleSvc:         p.RuleSvc,
		settingsSvc:     p.SettingsSvc,
		subscriptionSvc: p.SubscriptionSvc,
		auditSvc:        p.AuditSvc,
		notificationSvc: p.NotificationSvc,
		statsSvc:        p.StatsSvc,
		submitLimiter:   p.SubmitLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(TenantContext())
	api.Use(ActorContext("tenant"))

	// -------- Subscriptions --------
	api.POST("/subscriptions", s.SubmissionRateLimit(), s.SubmitSubscription)
	api.GET("/subscriptions", s.ListSubscriptions)
	api.GET("/subscriptions/:id", s.GetSubscriptionByID)

	// -------- Notifications --------
	api.GET("/notifications", s.ListNotifications)
	api.POST("/notifications/:id/read", s.MarkNotificationRead)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(ActorContext(actorctx.ActorTypeAdmin))

	// -------- Auto-approval rules --------
	admin.GET("/approval-rules", s.ListRules)
	admin.POST("/approval-rules", s.CreateRule)
	admin.GET("/approval-rules/:id", s.GetRuleByID)
	admin.PATCH("/approval-rules/:id", s.UpdateRule)
	admin.DELETE("/approval-rules/:id", s.DeleteRule)
	admin.POST("/approval-rules/:id/toggle", s.ToggleRule)

	// -------- Platform settings --------
	admin.GET("/settings/auto-approval", s.GetAutoApprovalSetting)
	admin.PUT("/settings/auto-approval", s.PutAutoApprovalSetting)

	// -------- Subscription lifecycle --------
	admin.GET("/subscriptions", s.ListSubscriptions)
	admin.GET("/subscriptions/:id", s.GetSubscriptionByID)
	admin.POST("/subscriptions/:id/approve", s.transitionHandler(subscriptiondomain.ActionApprove))
	admin.POST("/subscriptions/:id/reject", s.transitionHandler(subscriptiondomain.ActionReject))
	admin.POST("/subscriptions/:id/activate", s.transitionHandler(subscriptiondomain.ActionActivate))
	admin.POST("/subscriptions/:id/suspend", s.transitionHandler(subscriptiondomain.ActionSuspend))
	admin.POST("/subscriptions/:id/reactivate", s.transitionHandler(subscriptiondomain.ActionReactivate))
	admin.POST("/subscriptions/:id/terminate", s.transitionHandler(subscriptiondomain.ActionTerminate))

	// -------- Approval history --------
	admin.GET("/approval-history", s.ListApprovalHistory)
	admin.GET("/subscriptions/:id/history", s.ListSubscriptionHistory)

	// -------- Stats --------
	admin.GET("/stats/approvals", s.GetApprovalStats)

	// -------- Notifications --------
	admin.GET("/notifications", s.ListNotifications)
	admin.POST("/notifications/:id/read", s.MarkNotificationRead)
}
