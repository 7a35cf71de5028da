package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Recoverer turns a panic in a handler into a 500 written by onPanic.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recoverer(log *zap.Logger, onPanic http.HandlerFunc) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rv := recover()
				if rv == nil {
					return
				}
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				log.Error("http.panic",
					zap.String("request_id", RequestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rv),
					zap.Stack("stack"),
				)
				onPanic(w, r)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
