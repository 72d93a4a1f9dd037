package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"animaldex/internal/gateway/handler"
	"animaldex/internal/gateway/middleware"
)

// HealthProbe checks a backing dependency for /healthz.
type HealthProbe func(ctx context.Context) error

func NewMux(logger *slog.Logger, api *handler.API, sessions middleware.SessionResolver, probe HealthProbe) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if probe != nil {
			if err := probe(ctx); err != nil {
				logger.Error("health probe failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("degraded"))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/register", api.HandleRegister)
	mux.HandleFunc("/api/login", api.HandleLogin)
	mux.HandleFunc("/api/logout", api.HandleLogout)
	mux.HandleFunc("/api/me", api.HandleMe)
	mux.HandleFunc("/api/predict", api.HandlePredict)
	mux.HandleFunc("/ws/discoveries", api.HandleDiscoveriesWS)
	mux.HandleFunc("/uploads/", api.HandleUploads)

	h := middleware.Session(sessions, mux)
	h = middleware.RequestLog(logger, h)
	return middleware.CORS(h)
}
