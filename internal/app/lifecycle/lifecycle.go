package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// Server is the process's request-serving component.
type Server interface {
	Run() error
}

// Worker is a background component such as a queue consumer.
type Worker interface {
	Run(ctx context.Context) error
}

// Serve runs server and workers until ctx is done or the server fails, then calls shutdown and
// waits for every component to return. A worker that stops on its own is logged and the server
// keeps serving. The returned error is the server's failure, if any.
func Serve(ctx context.Context, server Server, shutdown func(), workers ...Worker) error {
	serverDone := make(chan error, 1)

	var g errgroup.Group
	g.Go(func() error {
		err := server.Run()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("http server: %w", err)
		}
		serverDone <- err

		return err
	})
	for _, w := range workers {
		g.Go(func() error {
			if err := w.Run(ctx); err != nil {
				slog.Error("Worker stopped, HTTP server keeps running", "error", err)
			}

			return nil
		})
	}

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverDone:
		slog.Error("HTTP server stopped unexpectedly", "error", err)
	}

	shutdown()

	return g.Wait()
}
