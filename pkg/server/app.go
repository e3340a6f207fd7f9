package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SmartSignal/pkg/config"
	xhttp "SmartSignal/pkg/http"
	"SmartSignal/pkg/logger"
)

// worker is a background component with its own start and stop.
type worker struct {
	name  string
	start func(context.Context) error
	stop  func(context.Context) error
}

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *xhttp.Server
	workers    []worker
	closers    []closer
	started    []worker
}

// New creates a new App around the HTTP server.
func New(cfg *config.Config, log *logger.Logger, httpServer *xhttp.Server) *App {
	return &App{
		cfg:        cfg,
		log:        log.With(logger.String("component", "app")),
		httpServer: httpServer,
	}
}

// AddWorker registers a background component. Workers start in the order
// added and stop in reverse.
func (a *App) AddWorker(name string, start, stop func(context.Context) error) {
	a.workers = append(a.workers, worker{name: name, start: start, stop: stop})
}

// AddCloser registers a resource released after every worker stopped.
// Closers run in reverse order of registration.
func (a *App) AddCloser(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts everything and blocks until ctx ends or the HTTP server
// fails, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		a.shutdown()
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-a.httpServer.Errors():
		runErr = fmt.Errorf("http server: %w", err)
	}
	a.shutdown()
	return runErr
}

func (a *App) start(ctx context.Context) error {
	for _, w := range a.workers {
		if err := w.start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", w.name, err)
		}
		a.started = append(a.started, w)
		a.log.Info("worker started", logger.String("worker", w.name))
	}
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown() {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.log.Info("shutting down")
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}
	for i := len(a.started) - 1; i >= 0; i-- {
		w := a.started[i]
		if err := w.stop(ctx); err != nil {
			a.log.Warn("worker stop error", logger.String("worker", w.name), logger.Error(err))
		}
	}
	a.started = nil
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.log.Warn("close error", logger.String("resource", c.name), logger.Error(err))
		}
	}
	a.closers = nil
	a.log.Info("shutdown complete")
}
