package hc

import (
	"context"
	"net/http"
	"time"

	"margin/handler/render"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// Ping readiness probe of a dependency, nil when healthy
type Ping func(ctx context.Context) error

// Handle health check, 503 while any ping fails
func Handle(ver string, pings map[string]Ping) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoCache)
	r.Handle("/", handle(ver, pings))
	return r
}

func handle(version string, pings map[string]Ping) http.HandlerFunc {
	b := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(b).Truncate(time.Millisecond)

		for name, ping := range pings {
			if err := ping(r.Context()); err != nil {
				render.Error(w, http.StatusServiceUnavailable, -1, &pingError{name: name, err: err})
				return
			}
		}

		render.JSON(w, render.H{
			"uptime":  uptime.String(),
			"version": version,
		})
	}
}

type pingError struct {
	name string
	err  error
}

func (e *pingError) Error() string {
	return e.name + ": " + e.err.Error()
}
