package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/churnlabs/churnguard/internal/clock"
	"github.com/churnlabs/churnguard/internal/config"
	"github.com/churnlabs/churnguard/internal/member"
	memberdomain "github.com/churnlabs/churnguard/internal/member/domain"
	"github.com/churnlabs/churnguard/internal/observability"
	obsmiddleware "github.com/churnlabs/churnguard/internal/observability/logger"
	obsmetrics "github.com/churnlabs/churnguard/internal/observability/metrics"
	obstracing "github.com/churnlabs/churnguard/internal/observability/tracing"
	"github.com/churnlabs/churnguard/internal/providers/messaging"
	"github.com/churnlabs/churnguard/internal/ratelimit"
	"github.com/churnlabs/churnguard/internal/retention"
	"github.com/churnlabs/churnguard/internal/webhook"
	webhookdomain "github.com/churnlabs/churnguard/internal/webhook/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	member.Module,
	webhook.Module,
	retention.Module,
	messaging.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
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
	engine       *gin.Engine
	db           *gorm.DB
	clk          clock.Clock
	membersvc    memberdomain.Service
	webhooksvc   webhookdomain.Service
	events       webhookdomain.Repository
	messenger    messaging.Provider
	retentionCfg *config.RetentionConfigHolder
	limiter      *ratelimit.WebhookLimiter
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	DB           *gorm.DB
	Clock        clock.Clock
	MemberSvc    memberdomain.Service
	WebhookSvc   webhookdomain.Service
	Events       webhookdomain.Repository
	Messenger    messaging.Provider
	RetentionCfg *config.RetentionConfigHolder
	Limiter      *ratelimit.WebhookLimiter `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		db:           p.DB,
		clk:          p.Clock,
		membersvc:    p.MemberSvc,
		webhooksvc:   p.WebhookSvc,
		events:       p.Events,
		messenger:    p.Messenger,
		retentionCfg: p.RetentionCfg,
		limiter:      p.Limiter,
		obsMetrics:   p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/webhooks/whop", s.HandleWhopWebhook)

	api.GET("/dashboard", s.businessRateLimit(), s.GetDashboard)
	api.GET("/at-risk", s.businessRateLimit(), s.ListAtRisk)
	api.GET("/recent-cancels", s.businessRateLimit(), s.ListRecentCancels)

	api.POST("/survey", s.SubmitSurvey)
	api.POST("/session", s.CreateSession)

	actions := api.Group("/actions")
	{
		actions.POST("/message", s.SendMemberMessage)
		actions.POST("/recover", s.SendRecoveryMessage)
	}

	api.GET("/webhook-status", s.GetWebhookStatus)
	api.POST("/webhook-status", s.ManageWebhookStatus)
}
