package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

func (a *App) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("microloan server is running"))
}

// Health reports whether the backing store answers a ping. A degraded
// store is still answered with 200 so load balancers can tell the
// process itself is alive.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Store: "ok"}

	if a.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := a.Store.Ping(ctx); err != nil {
			a.log(r).WithError(err).Warn("store ping failed")
			resp = healthResponse{Status: "degraded", Store: "unreachable"}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
