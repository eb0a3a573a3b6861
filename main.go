package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/rodeoware/ropingapi/audit"
	"github.com/rodeoware/ropingapi/config"
	"github.com/rodeoware/ropingapi/core"
	"github.com/rodeoware/ropingapi/db"
	"github.com/rodeoware/ropingapi/handlers"
	applog "github.com/rodeoware/ropingapi/logger"
	mw "github.com/rodeoware/ropingapi/middleware"
	"github.com/rodeoware/ropingapi/store"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	engine := core.NewEngine(store.New(bdb),
		core.WithLogger(logger),
		core.WithDeductionRate(cfg.PayoutDeductionRate))
	rec := audit.New(bdb, logger)
	h := handlers.New(bdb, engine, rec, logger, cfg.JWTKey())

	e := echo.New()
	e.Use(mw.RequestID())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if id, ok := c.Get("request_id").(string); ok {
				fields = append(fields, zap.String("request_id", id))
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*", "Authorization"},
		AllowCredentials: true,
	}))

	// Public
	e.POST("/api/signin", h.Signin)

	// Protected – require valid JWT in Authorization header
	api := e.Group("/api", mw.JWT(cfg.JWTKey()))
	api.POST("/password-hash", h.PasswordHash)

	api.GET("/series", h.ListSeries)
	api.POST("/series", h.CreateSeries)
	api.PUT("/series/:id", h.UpdateSeries)
	api.DELETE("/series/:id", h.DeleteSeries)
	api.GET("/series/:id/activity", h.SeriesActivity)

	api.GET("/events", h.ListEvents)
	api.POST("/events", h.CreateEvent)
	api.PUT("/events/:id", h.UpdateEvent)
	api.PUT("/events/:id/status", h.UpdateEventStatus)
	api.POST("/events/:id/lock", h.LockEvent)
	api.POST("/events/:id/duplicate", h.DuplicateEvent)
	api.DELETE("/events/:id", h.DeleteEvent)

	api.GET("/ropers", h.ListRopers)
	api.POST("/ropers", h.CreateRoper)
	api.PUT("/ropers/:id", h.UpdateRoper)
	api.DELETE("/ropers/:id", h.DeleteRoper)

	api.GET("/events/:eventID/teams", h.ListTeams)
	api.POST("/teams", h.CreateTeam)
	api.PUT("/teams/:id", h.UpdateTeam)
	api.DELETE("/teams/:id", h.DeleteTeam)
	api.DELETE("/events/:eventID/teams", h.DeleteEventTeams)

	api.GET("/events/:eventID/payoffs", h.ListPayoffRules)
	api.POST("/payoffs", h.CreatePayoffRule)
	api.DELETE("/payoffs/:id", h.DeletePayoffRule)
	api.GET("/events/:eventID/payouts", h.PayoutBreakdown)

	api.GET("/events/:eventID/runs", h.ListRuns)
	api.GET("/events/:eventID/runs/expanded", h.ListRunsExpanded)
	api.POST("/runs", h.SaveRun)

	api.GET("/events/:eventID/draw", h.GetDraw)
	api.POST("/events/:eventID/draw", h.GenerateDraw)
	api.POST("/events/:eventID/draw/batch", h.GenerateDrawBatch)

	api.GET("/events/:eventID/standings", h.Standings)

	api.GET("/activity", h.RecentActivity)
	api.GET("/stats", h.DashboardStats)

	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}
