package handlers

import (
	"context"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "visitors": a.Registry.Len()}
	if a.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			a.logger.Error().Err(err).Msg("health: database ping failed")
			status["status"] = "degraded"
			status["database"] = "unreachable"
			a.json(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}
	a.json(w, http.StatusOK, status)
}
