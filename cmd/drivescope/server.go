package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mordilloSan/go-logger/logger"

	"github.com/damacus/drivescope/internal/handlers"
	custommw "github.com/damacus/drivescope/internal/middleware"
)

// newServer builds the HTTP API around the given collaborators.
func newServer(c *components) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	snapshot := handlers.NewSnapshot(c.cache)
	scanHandler := handlers.NewScanHandler(c.explorer, c.aggregator, snapshot)
	analysisHandler := handlers.NewAnalysisHandler(snapshot)
	cacheHandler := handlers.NewCacheHandler(c.cache)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			logger.Infof("%s %s -> %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(custommw.SecurityHeaders())

	e.GET("/health", func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "OK")
	})

	e.POST("/api/scan", scanHandler.Scan)
	e.GET("/api/structure/stats", analysisHandler.StructureStats)

	e.GET("/api/analysis/largest", analysisHandler.Largest)
	e.GET("/api/analysis/distribution", analysisHandler.Distribution)
	e.GET("/api/analysis/workspace", analysisHandler.Workspace)
	e.GET("/api/analysis/types", analysisHandler.Types)
	e.GET("/api/analysis/empty", analysisHandler.Empty)

	e.GET("/api/cache/stats", cacheHandler.Stats)
	e.POST("/api/cache/clear", cacheHandler.Clear)
	e.POST("/api/cache/optimize", cacheHandler.Optimize)

	return e
}
