package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"todolist/internal/config"
	"todolist/internal/events"
	"todolist/internal/handlers"
	"todolist/internal/logger"
	"todolist/internal/middleware"
	"todolist/internal/repository"
	"todolist/internal/repository/todo/inmemory"
	"todolist/internal/repository/todo/postgres"
	"todolist/internal/service"
	"todolist/internal/worker"
	"todolist/internal/ws"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	repo      repository.TodoRepository
	relay     *events.Relay
	hub       *ws.Hub
	worker    *worker.OverdueWorker
	shutdowns []func() // functions for graceful shutdown, LIFO
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Shutting down logging...")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		return err
	}

	a.relay = events.NewRelay()
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Shutting down event relay...")
		a.relay.Close()
	})

	a.hub = ws.NewHub()
	a.hub.SubscribeRelay(a.relay)

	if a.config.Worker.Enabled {
		a.worker = worker.NewOverdueWorker(a.repo, a.relay,
			a.config.Worker.Interval, a.config.Worker.BatchSize)
	}

	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.ServerAddr(),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case "postgres":
		storage, err := postgres.New(ctx, a.config.Database.URL)
		if err != nil {
			return fmt.Errorf("postgres init: %w", err)
		}
		if err := storage.Migrate(ctx); err != nil {
			storage.Close()
			return fmt.Errorf("migrations: %w", err)
		}
		a.repo = storage
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Closing database pool...")
			storage.Close()
		})

	case "inmemory", "":
		a.repo = inmemory.NewStorage()

	default:
		return fmt.Errorf("unknown repository type %q", a.config.Repository.Type)
	}

	logger.Info("Repository initialized", zap.String("type", a.config.Repository.Type))
	return nil
}

func (a *App) initRouter() {
	todoService := service.NewTodoService(a.repo, a.relay)
	chartService := service.NewChartService(a.repo)
	reportService := service.NewReportService(a.repo)

	todoHandler := handlers.NewTodoHandler(todoService)
	chartHandler := handlers.NewChartHandler(chartService)
	reportHandler := handlers.NewReportHandler(reportService)

	upgrader := ws.NewUpgrader(a.config.Websocket.AllowedOrigins)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(300))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/todo-lists", func(r chi.Router) {
			r.Get("/", todoHandler.List)
			r.Post("/", todoHandler.Create)
			r.Post("/bulk-delete", todoHandler.BulkDelete)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", todoHandler.Get)
				r.Put("/", todoHandler.Update)
				r.Patch("/", todoHandler.Update)
				r.Delete("/", todoHandler.Delete)
			})
		})

		r.Get("/chart", chartHandler.GetChart)

		r.Route("/reports/todo-lists", func(r chi.Router) {
			r.Get("/export", reportHandler.Export)
			r.Get("/preview", reportHandler.Preview)
		})
	})

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWS(a.hub, upgrader, w, req)
	})

	r.Get("/health", todoHandler.HealthCheck)

	a.router = r
}

// Run blocks until ctx is canceled, then drains the server and the
// background goroutines in reverse init order.
func (a *App) Run(ctx context.Context) error {
	hubCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.hub.Run(hubCtx)

	if a.worker != nil {
		go a.worker.Start(hubCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", err)
	}

	cancel() // stops the hub and the worker

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	return nil
}
