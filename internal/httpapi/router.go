package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// NewMux returns the raw mux without middleware.
func NewMux(d Deps) *http.ServeMux {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.RunCtx == nil {
		d.RunCtx = context.Background()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	// Runs
	rh := RunHandler{Runner: d.Runner, Ctx: d.RunCtx, Log: d.Logger.Named("http"), Inflight: d.Inflight}
	mux.HandleFunc("/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Trigger,
	}))
	mux.HandleFunc("/run/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))

	// Latest view
	lh := LatestHandler{Latest: d.Latest}
	mux.HandleFunc("/latest", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.Get,
	}))

	// SSE events
	if d.Hub != nil {
		eh := EventsHandler{Hub: d.Hub}
		mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: eh.ServeSSE,
		}))
	}

	return mux
}

// NewHandler is NewMux wrapped in the standard middleware chain.
func NewHandler(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")
	return Chain(NewMux(d), RequestID, Recover(log), AccessLog(log))
}
