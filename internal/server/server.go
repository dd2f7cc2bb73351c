package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/aquametric/ratewise/internal/analytics"
	analyticsdomain "github.com/aquametric/ratewise/internal/analytics/domain"
	"github.com/aquametric/ratewise/internal/audit"
	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	"github.com/aquametric/ratewise/internal/authorization"
	"github.com/aquametric/ratewise/internal/billing"
	billingdomain "github.com/aquametric/ratewise/internal/billing/domain"
	"github.com/aquametric/ratewise/internal/config"
	"github.com/aquametric/ratewise/internal/forecast"
	forecastdomain "github.com/aquametric/ratewise/internal/forecast/domain"
	"github.com/aquametric/ratewise/internal/observability"
	obslogger "github.com/aquametric/ratewise/internal/observability/logger"
	obsmetrics "github.com/aquametric/ratewise/internal/observability/metrics"
	obstracing "github.com/aquametric/ratewise/internal/observability/tracing"
	"github.com/aquametric/ratewise/internal/principal"
	"github.com/aquametric/ratewise/internal/ratelimit"
	"github.com/aquametric/ratewise/internal/tariff"
	tariffdomain "github.com/aquametric/ratewise/internal/tariff/domain"
	"github.com/aquametric/ratewise/internal/user"
	userdomain "github.com/aquametric/ratewise/internal/user/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	billing.Module,
	tariff.Module,
	analytics.Module,
	forecast.Module,
	user.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(m.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", m.Handler())

	return r
}

func registerGin(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(obsCfg, m)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
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
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	authzSvc      authorization.Service
	auditSvc      auditdomain.Service
	billingSvc    billingdomain.Service
	tariffSvc     tariffdomain.Service
	analyticsSvc  analyticsdomain.Service
	forecastSvc   forecastdomain.Service
	userSvc       userdomain.Service
	importLimiter *ratelimit.ImportLimiter
	metrics       *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	AuthzSvc      authorization.Service
	AuditSvc      auditdomain.Service
	BillingSvc    billingdomain.Service
	TariffSvc     tariffdomain.Service
	AnalyticsSvc  analyticsdomain.Service
	ForecastSvc   forecastdomain.Service
	UserSvc       userdomain.Service
	ImportLimiter *ratelimit.ImportLimiter `optional:"true"`
	Metrics       *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		authzSvc:      p.AuthzSvc,
		auditSvc:      p.AuditSvc,
		billingSvc:    p.BillingSvc,
		tariffSvc:     p.TariffSvc,
		analyticsSvc:  p.AnalyticsSvc,
		forecastSvc:   p.ForecastSvc,
		userSvc:       p.UserSvc,
		importLimiter: p.ImportLimiter,
		metrics:       p.Metrics,
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
	api.Use(s.AuthRequired())

	tariffs := api.Group("/tariffs")
	tariffs.GET("", s.ListRateStructures)
	tariffs.GET("/:id", s.GetRateStructure)
	tariffs.POST("/:id/compute", s.ComputeBill)
	tariffs.POST("", s.RequireRole(principal.RoleAnalyst), s.CreateRateStructure)
	tariffs.POST("/:id/activate", s.RequireRole(principal.RoleAdmin), s.ActivateRateStructure)
	tariffs.POST("/impacts", s.RequireRole(principal.RoleAnalyst), s.ModelImpacts)
	tariffs.POST("/optimize", s.RequireRole(principal.RoleAnalyst), s.OptimizeRates)

	analyticsGroup := api.Group("/analytics")
	analyticsGroup.GET("/overview", s.AnalyticsOverview)
	analyticsGroup.GET("/trends", s.AnalyticsTrends)
	analyticsGroup.GET("/cohorts", s.AnalyticsCohorts)

	datasets := api.Group("/datasets")
	datasets.GET("", s.ListDatasets)
	datasets.GET("/:id", s.GetDataset)
	datasets.GET("/:id/export", s.RequireRole(principal.RoleAnalyst), s.ExportDataset)
	datasets.POST("", s.RequireRole(principal.RoleAnalyst), s.ImportDataset)
	datasets.POST("/:id/commit", s.RequireRole(principal.RoleAnalyst), s.CommitDataset)

	forecasts := api.Group("/forecasts")
	forecasts.GET("", s.ListForecasts)
	forecasts.GET("/:id", s.GetForecast)
	forecasts.POST("/assumptions", s.RequireRole(principal.RoleAnalyst), s.CreateAssumption)
	forecasts.GET("/assumptions", s.ListAssumptions)
	forecasts.POST("/run", s.RequireRole(principal.RoleAnalyst), s.RunForecast)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin")
	admin.Use(s.AuthRequired(), s.RequireRole(principal.RoleAdmin))

	admin.GET("/users", s.ListUsers)
	admin.GET("/users/:id", s.GetUser)
	admin.POST("/users", s.CreateUser)
	admin.PATCH("/users/:id", s.UpdateUser)
	admin.DELETE("/users/:id", s.DeleteUser)

	admin.GET("/audit-logs", s.ListAuditLogs)
	admin.GET("/audit-logs/recent", s.RecentAuditLogs)
}
