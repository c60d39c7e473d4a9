package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/classlab/gerrymander/internal/server"
)

func SetupRoutes(log *zap.Logger, m *server.Manager) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/ws/player", PlayerHandler(log, m))
	r.Get("/ws/admin", AdminHandler(log, m))
	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
