package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/cbc-reportcard/api/swagger"
	"github.com/noah-isme/cbc-reportcard/internal/handler"
	"github.com/noah-isme/cbc-reportcard/internal/middleware"
	"github.com/noah-isme/cbc-reportcard/internal/service"
	"github.com/noah-isme/cbc-reportcard/pkg/config"
	"github.com/noah-isme/cbc-reportcard/pkg/export"
	"github.com/noah-isme/cbc-reportcard/pkg/logger"
	corsmiddleware "github.com/noah-isme/cbc-reportcard/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/cbc-reportcard/pkg/middleware/requestid"
)

// @title CBC Report Card API
// @version 1.0.0
// @description Renders CBC student progress report cards as PDF documents.
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	r := newRouter(cfg, logr, metricsSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "api_prefix", cfg.APIPrefix)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService) *gin.Engine {
	formatter := service.NewReportFormatter(cfg.School, export.NewPDFExporter(), nil)
	reports := service.NewReportCardService(formatter, validator.New(), metricsSvc, logr, service.ReportCardConfig{
		DefaultTerm:         cfg.Reports.DefaultTerm,
		DefaultAcademicYear: cfg.Reports.DefaultAcademicYear,
	})
	reportHandler := handler.NewReportCardHandler(reports, cfg.School.Name, cfg.Reports.MaxBodyBytes)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/reports/generate", reportHandler.Generate)

	return r
}
