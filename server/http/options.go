package http

import (
	"context"
	"net/http"

	"github.com/w-h-a/recall/server"
)

type middlewareKey struct{}

func WithMiddleware(ms ...func(h http.Handler) http.Handler) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, middlewareKey{}, ms)
	}
}

func MiddlewareFrom(ctx context.Context) ([]func(h http.Handler) http.Handler, bool) {
	ms, ok := ctx.Value(middlewareKey{}).([]func(h http.Handler) http.Handler)
	return ms, ok
}

type handlerKey struct{}

func WithHandler(h http.Handler) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, handlerKey{}, h)
	}
}

func HandlerFrom(ctx context.Context) (http.Handler, bool) {
	h, ok := ctx.Value(handlerKey{}).(http.Handler)
	return h, ok
}
