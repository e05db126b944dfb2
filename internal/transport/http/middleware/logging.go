package httpmw

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/LikhithMar14/code-paglu/pkg/logger"

	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

// LoggingMiddleware пишет access-лог с request_id и trace-атрибутами.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middlewareChi.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)),
		}
		if reqID := middlewareChi.GetReqID(r.Context()); reqID != "" {
			attrs = append(attrs, slog.String("request_id", reqID))
		}
		attrs = append(attrs, logger.AttrsFromCtx(r.Context())...)

		logger.L().LogAttrs(context.Background(), slog.LevelInfo, "http", attrs...)
	})
}
