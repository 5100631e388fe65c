package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

type webServer struct {
	server *http.Server
}

func NewWebServer(addr string, handler http.Handler) *webServer {
	return &webServer{
		server: &http.Server{Addr: addr, Handler: handler},
	}
}

func (w *webServer) Name() string { return "web_server" }

func (w *webServer) Run(ctx context.Context) error {
	slog.Info("Listening for HTTP requests", "addr", w.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancelFn := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelFn()
		return w.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
