package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/chat-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, wsServer *ws.Server, verifier httpmw.CredentialVerifier, identities httpmw.IdentitySvc) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint; вне логирующей группы, чтобы не ломать Hijack при upgrade
	r.Get("/ws/chat", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.Logging)
		pr.Use(httpmw.Auth(verifier, identities))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/sessions", func(sr chi.Router) {
			sr.Get("/", h.ListSessions)
			sr.Get("/{id}/history", h.GetHistory)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
