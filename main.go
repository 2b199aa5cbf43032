package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"inmoback/config"
	"inmoback/database"
	"inmoback/routes"
	"inmoback/services"
)

func main() {
	app, err := NewApplication()
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Start(); err != nil {
		logrus.Fatalf("Failed to start application: %v", err)
	}
}

// Application represents the main application structure
type Application struct {
	config              *config.Config
	logger              *logrus.Logger
	server              *http.Server
	router              *gin.Engine
	scheduler           *cron.Cron
	subscriptionService *services.SubscriptionService
}

// NewApplication creates and initializes a new application instance
func NewApplication() (*Application, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	app := &Application{
		config: cfg,
		logger: logger,
		router: router,
		server: &http.Server{
			Addr:         cfg.GetServerAddress(),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	return app, nil
}

// Start initializes all components and runs the HTTP server until a
// shutdown signal arrives.
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"app":         app.config.AppName,
		"version":     app.config.AppVersion,
		"environment": app.config.Environment,
	}).Info("starting application")

	if err := database.Connect(app.config.MongoURI, app.config.DBName); err != nil {
		return err
	}

	if err := database.RunMigrations(app.config.AdminDefaultEmail, app.config.AdminDefaultPass); err != nil {
		return err
	}

	app.subscriptionService = routes.SetupRoutes(app.router, app.config, app.logger)

	if err := app.startSweeper(); err != nil {
		return err
	}

	go func() {
		app.logger.WithField("address", app.server.Addr).Info("HTTP server listening")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	return app.waitForShutdown()
}

// startSweeper schedules the periodic expiration sweep. The sweep is a
// single batch status transition, so overlapping or repeated runs are
// harmless.
func (app *Application) startSweeper() error {
	app.scheduler = cron.New()

	_, err := app.scheduler.AddFunc(app.config.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		count, err := app.subscriptionService.Sweep(ctx, time.Now().UTC())
		if err != nil {
			app.logger.WithError(err).Error("expiration sweep failed")
			return
		}
		app.logger.WithField("expired", count).Info("scheduled expiration sweep finished")
	})
	if err != nil {
		return err
	}

	app.scheduler.Start()
	app.logger.WithField("schedule", app.config.SweepSchedule).Info("expiration sweeper scheduled")

	if app.config.SweepOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if _, err := app.subscriptionService.Sweep(ctx, time.Now().UTC()); err != nil {
			app.logger.WithError(err).Warn("startup expiration sweep failed")
		}
	}

	return nil
}

// waitForShutdown blocks until SIGINT/SIGTERM and then drains cleanly.
func (app *Application) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.logger.Info("shutting down")

	if app.scheduler != nil {
		cronCtx := app.scheduler.Stop()
		<-cronCtx.Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.WithError(err).Error("HTTP server shutdown failed")
	}

	if err := database.Disconnect(); err != nil {
		app.logger.WithError(err).Error("database disconnect failed")
	}

	app.logger.Info("shutdown complete")
	return nil
}
