// Package srv runs long-lived components (HTTP server, bots, workers) under
// one lifecycle.
package srv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alphamail/chatbot/pkg/log"
)

// Service is a component with a blocking Start and a Shutdown that makes
// Start return.
type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// DefaultShutdownTimeout bounds the time given to Shutdown calls.
const DefaultShutdownTimeout = 10 * time.Second

// Run starts every service and blocks until ctx is cancelled or one of them
// fails. Services are then shut down in reverse order.
func Run(ctx context.Context, services ...Service) error {
	logger := log.FromCtx(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range services {
		g.Go(func() error {
			if err := s.Start(gctx); err != nil {
				return fmt.Errorf("%T start: %w", s, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), DefaultShutdownTimeout)
		defer cancel()

		var errs []error
		for i := len(services) - 1; i >= 0; i-- {
			if err := services[i].Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msgf("%T failed to shutdown", services[i])
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
