package httpapi

import (
	"errors"
	"net/http"

	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
	"github.com/chris-coyne/job-scraping-pipeline/internal/objstore"
)

type LatestHandler struct {
	Latest LatestReader
}

func (h LatestHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Latest == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotAvailable, "latest view is not kept in this storage mode")
		return
	}
	recs, err := h.Latest.ReadLatest(r.Context())
	if errors.Is(err, objstore.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "no run has published a latest view yet")
		return
	}
	if err != nil {
		WriteDomainError(w, r, apperrors.Unavailable("read latest view", err))
		return
	}
	WriteJSON(w, http.StatusOK, recs)
}
