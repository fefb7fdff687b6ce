// Package server coordinates the game server's long-running services: the
// HTTP listener and the connection reaper start together and shut down in
// reverse order on SIGINT or SIGTERM.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component of the game server.
type Service interface {
	// Start blocks until the service stops or fails.
	Start() error
	// Stop asks the service to shut down; Start returns afterwards.
	Stop()
}

// Lifecycle starts registered services together and stops them in reverse
// registration order. A failing service tears the whole set down, so a dead
// reaper or listener never leaves a half-alive process.
type Lifecycle struct {
	logger *zap.Logger

	mu       sync.Mutex
	services []registration
}

type registration struct {
	name string
	svc  Service
}

// NewLifecycle creates an empty lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named service. Registration order is start order; shutdown
// runs in reverse.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, registration{name: name, svc: svc})
}

// Run starts every registered service and blocks until SIGINT, SIGTERM, a
// service failure, or context cancellation, then stops everything.
//
// Postcondition: all services have been stopped when Run returns.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	services := make([]registration, len(l.services))
	copy(services, l.services)
	l.mu.Unlock()

	failures := make(chan error, len(services))
	for _, reg := range services {
		reg := reg
		go func() {
			l.logger.Info("service starting", zap.String("service", reg.name))
			if err := reg.svc.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", reg.name),
					zap.Error(err),
				)
				failures <- fmt.Errorf("service %s: %w", reg.name, err)
				cancel()
			}
		}()
	}
	l.logger.Info("gameserver running", zap.Int("services", len(services)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		l.logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
	case err := <-failures:
		l.logger.Error("service error, shutting down", zap.Error(err))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	for i := len(services) - 1; i >= 0; i-- {
		reg := services[i]
		stopStart := time.Now()
		reg.svc.Stop()
		l.logger.Info("service stopped",
			zap.String("service", reg.name),
			zap.Duration("elapsed", time.Since(stopStart)),
		)
	}

	l.logger.Info("gameserver stopped", zap.Duration("uptime", time.Since(start)))
	return nil
}
