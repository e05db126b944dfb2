package httpmw

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HeartbeatMiddleware обновляет last_seen участника, если в пути есть roomID.
type HeartbeatToucher interface {
	TouchHeartbeat(ctx context.Context, roomID, identity string) error
}

func HeartbeatMiddleware(roster HeartbeatToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := ClaimsFromCtx(r.Context()); claims != nil {
				if roomID := chi.URLParam(r, "id"); roomID != "" {
					// best-effort: ошибки не прерывают запрос
					_ = roster.TouchHeartbeat(r.Context(), roomID, claims.Subject)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
