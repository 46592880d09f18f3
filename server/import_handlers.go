package server

import (
	"encoding/json"
	"net/http"

	"melodex/apperr"
)

type importRequest struct {
	URL string `json:"url"`
}

type importBatchRequest struct {
	URLs []string `json:"urls"`
}

// SearchCandidatesHandler searches the video source and returns importable
// candidates with estimated audio sizes.
func (h *APIHandler) SearchCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, apperr.New(apperr.KindValidationFailed, "missing 'q' query parameter"))
		return
	}

	candidates, err := h.ingestSvc.SearchCandidates(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, candidates)
}

// ImportHandler imports a single video URL as a song owned by the caller.
func (h *APIHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, apperr.New(apperr.KindValidationFailed, "request body must carry a url"))
		return
	}

	song, err := h.ingestSvc.ImportFromURL(r.Context(), req.URL, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, song)
}

// ImportBatchHandler imports several video URLs sequentially. The response
// always carries the songs that succeeded plus a per-URL failure map; partial
// success is a success.
func (h *APIHandler) ImportBatchHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req importBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
		writeError(w, apperr.New(apperr.KindValidationFailed, "request body must carry a non-empty urls list"))
		return
	}

	songs, failures := h.ingestSvc.ImportMany(r.Context(), req.URLs, ownerID)

	failed := make(map[string]map[string]string, len(failures))
	for url, ferr := range failures {
		failed[url] = map[string]string{
			"kind":    string(apperr.KindOf(ferr)),
			"message": apperr.MessageOf(ferr),
		}
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"imported": songs,
		"failed":   failed,
	})
}
