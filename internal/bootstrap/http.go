package bootstrap

import (
	"net/http"

	_ "github.com/erp/catalogsync/docs"
	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/erp/catalogsync/internal/interfaces/http/handler"
	"github.com/erp/catalogsync/internal/interfaces/http/middleware"
	"github.com/erp/catalogsync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; sync requests carry none
const maxBodyBytes = 1 << 20

// Engine builds the gin engine with the full middleware chain and every route
func (a *App) Engine() *gin.Engine {
	if a.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(a.Config.HTTP.TrustedProxies); err != nil {
		a.Logger.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}
	middleware.SetupValidator()

	engine.Use(
		logger.Recovery(a.Logger),
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: a.Config.Telemetry.ServiceName,
			Enabled:     a.Config.Telemetry.Enabled,
		}),
		logger.GinMiddleware(a.Logger),
		middleware.HTTPMetricsWithMeter(a.meter.Meter(meterName+"/http")),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.DefaultCORSConfig()),
		middleware.BodyLimit(maxBodyBytes),
	)

	system := handler.NewSystemHandler(a.DB, a.Version)
	engine.GET("/health", system.Health)
	engine.GET("/system/info", system.GetSystemInfo)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    a.Config.Swagger.Enabled,
			AllowedIPs: a.Config.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// JobLister stays a nil interface when scheduling is off
	var jobs handler.JobLister
	if a.Scheduler != nil {
		jobs = a.Scheduler.History()
	}

	r := router.NewRouter(engine, router.WithAPIMiddleware(
		middleware.TenantMiddleware(),
		middleware.SpanAttributes(),
	))
	r.Register(handler.NewSyncHandler(a.Service, jobs).Routes())
	r.Setup()

	return engine
}

// Server wraps the engine in an http.Server configured from the HTTP settings
func (a *App) Server() *http.Server {
	cfg := a.Config
	return &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        a.Engine(),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}
}
