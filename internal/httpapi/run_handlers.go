package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/chris-coyne/job-scraping-pipeline/internal/lock"
	"github.com/chris-coyne/job-scraping-pipeline/internal/run"
)

type RunHandler struct {
	Runner Runner
	Ctx    context.Context
	Log    *zap.Logger

	// Inflight counts triggered runs so shutdown can wait for them.
	Inflight *sync.WaitGroup
}

type RunStatus struct {
	Running bool        `json:"running"`
	Last    *run.Result `json:"last,omitempty"`
}

// Trigger starts a run in the background and answers 202 right away.
func (h RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.Runner.Active() {
		WriteError(w, r, http.StatusConflict, CodeRunInProgress, "a run is already in progress")
		return
	}

	reqID := RequestIDFrom(r.Context())
	if h.Inflight != nil {
		h.Inflight.Add(1)
	}
	go func() {
		if h.Inflight != nil {
			defer h.Inflight.Done()
		}
		res, err := h.Runner.Run(h.Ctx)
		switch {
		case errors.Is(err, lock.ErrRunInProgress):
			h.Log.Info("run skipped, another run holds the lock", zap.String("request_id", reqID))
		case err != nil:
			h.Log.Error("triggered run failed", zap.String("request_id", reqID), zap.Error(err))
		default:
			h.Log.Info("triggered run finished",
				zap.String("request_id", reqID),
				zap.String("run_id", res.RunID),
				zap.String("status", string(res.Status)))
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := RunStatus{Running: h.Runner.Active()}
	if last, ok := h.Runner.Last(); ok {
		st.Last = &last
	}
	WriteJSON(w, http.StatusOK, st)
}
