package http

import (
	"net/http"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/service"
	httpmw "github.com/LikhithMar14/code-paglu/internal/transport/http/middleware"
	"github.com/LikhithMar14/code-paglu/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, verifier httpmw.TokenVerifier, roster *service.RosterService, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httpmw.LoggingMiddleware)

	// WS endpoint: токен проверяется внутри HandleWS (access_token в query)
	r.Get("/ws", wsServer.HandleWS)

	// Выдача токена — единственный публичный маршрут
	r.Get("/api/token", h.GetToken)

	// Остальной API требует валидный join-токен
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(verifier))
		pr.Use(httpmw.HeartbeatMiddleware(roster))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/api/rooms", func(rm chi.Router) {
			rm.Get("/", h.ListRooms)

			rm.Route("/{id}", func(rr chi.Router) {
				rr.Get("/participants", h.GetParticipants)
				rr.Post("/messages", h.SendMessage)
				rr.Post("/typing", h.SendTyping)
			})
		})

		pr.Post("/api/execute", h.Execute)
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
