package handlers

import (
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"env":            a.Env,
		"uptime_seconds": int64(time.Since(a.StartedAt).Seconds()),
	})
}
