package server

import (
	"encoding/json"
	"net/http"

	"melodex/apperr"
	"melodex/core/catalog"
	"melodex/model"
	"melodex/repository"
)

type createPlaylistRequest struct {
	Name string `json:"name"`
}

type renamePlaylistRequest struct {
	Name string `json:"name"`
}

type membershipRequest struct {
	SongID string `json:"songId"`
	Action string `json:"action"`
}

type playlistWithSongs struct {
	*model.Playlist
	SongDetails []*model.Song `json:"songDetails"`
}

// CreatePlaylistHandler creates an empty playlist owned by the caller.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.KindValidationFailed, "invalid request body"))
		return
	}

	playlist, err := h.catalogSvc.Create(r.Context(), req.Name, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, playlist)
}

// GetPlaylistHandler returns a playlist with its songs resolved in order.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	playlist, songs, err := h.catalogSvc.GetWithSongs(r.Context(), playlistID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, playlistWithSongs{Playlist: playlist, SongDetails: songs})
}

// ListPlaylistsHandler pages through the caller's playlists.
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.catalogSvc.ListByOwner(r.Context(), ownerID, pageOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, page)
}

// RenamePlaylistHandler changes a playlist's name.
func (h *APIHandler) RenamePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req renamePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.KindValidationFailed, "invalid request body"))
		return
	}

	playlist, err := h.catalogSvc.Rename(r.Context(), playlistID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, playlist)
}

// DeletePlaylistHandler removes a playlist; its songs are untouched.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.catalogSvc.Delete(r.Context(), playlistID); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "playlist deleted"})
}

// PlaylistMembershipHandler adds or removes a single song.
// Body: {"songId": "...", "action": "add"|"remove"}.
func (h *APIHandler) PlaylistMembershipHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.KindValidationFailed, "invalid request body"))
		return
	}

	songID, err := repository.ParseID(req.SongID)
	if err != nil {
		writeError(w, err)
		return
	}

	playlist, err := h.catalogSvc.UpdateMembership(r.Context(), playlistID, songID, catalog.MembershipAction(req.Action))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, playlist)
}
