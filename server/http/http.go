package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/w-h-a/recall/server"
)

type httpServer struct {
	options server.Options
	srv     *http.Server
}

func (s *httpServer) Options() server.Options {
	return s.options
}

func (s *httpServer) Run() error {
	slog.Info("http server listening", "name", s.options.Name, "address", s.options.Address)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *httpServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.srv.Shutdown(ctx)
}

func NewServer(opts ...server.Option) server.Server {
	options := server.NewOptions(opts...)

	handler, ok := HandlerFrom(options.Context)
	if !ok {
		panic("an http handler is required")
	}

	if ms, ok := MiddlewareFrom(options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			handler = ms[i](handler)
		}
	}

	return &httpServer{
		options: options,
		srv: &http.Server{
			Addr:         options.Address,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
	}
}
