package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func SetupRoutes(reg Connector, token string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/", RegisterServer(reg, token, log))
	r.Get("/healthz", Healthz)
	return r
}
