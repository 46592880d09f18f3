package server

import (
	"encoding/json"
	"net/http"

	"melodex/apperr"
	"melodex/core/auth"
	"melodex/model"
	"melodex/repository"
)

type updateProfileRequest struct {
	Email           *string `json:"email"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	UserName        *string `json:"userName"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
}

type favoriteRequest struct {
	SongID string `json:"songId"`
}

// GetProfileHandler returns the caller's account.
func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		writeError(w, apperr.New(apperr.KindNotFound, "user not found"))
		return
	}
	writeData(w, http.StatusOK, user)
}

// UpdateProfileHandler applies a partial profile update. Changing the
// password requires the current one.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.KindValidationFailed, "invalid request body"))
		return
	}

	current, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if current == nil || current.DeletedAt != nil {
		writeError(w, apperr.New(apperr.KindNotFound, "user not found"))
		return
	}

	patch := &repository.UserProfilePatch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
	}

	// Validate the merged result before writing anything.
	merged := *current
	if req.Email != nil {
		merged.Email = *req.Email
	}
	if req.FirstName != nil {
		merged.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		merged.LastName = *req.LastName
	}
	if req.UserName != nil {
		merged.UserName = *req.UserName
	}
	if err := merged.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if req.NewPassword != nil {
		if !auth.CheckPasswordHash(req.CurrentPassword, current.PasswordHash) {
			writeError(w, apperr.New(apperr.KindUnauthorized, "current password is incorrect"))
			return
		}
		if l := len(*req.NewPassword); l < 8 || l > 100 {
			writeError(w, apperr.New(apperr.KindValidationFailed, "password must be 8-100 characters"))
			return
		}
		hash, err := auth.HashPassword(*req.NewPassword)
		if err != nil {
			writeError(w, err)
			return
		}
		patch.PasswordHash = &hash
	}

	updated, err := h.users.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if updated == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "user not found"))
		return
	}
	writeData(w, http.StatusOK, updated)
}

// DeleteAccountHandler soft-deletes the caller's account. The document stays
// so song ownership references keep resolving.
func (h *APIHandler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	deleted, err := h.users.SoftDelete(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if deleted == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "user not found"))
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// AddFavoriteHandler adds a song to the caller's favorites. Adding a song
// that is already a favorite is a no-op.
func (h *APIHandler) AddFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	h.favoriteUpdate(w, r, true)
}

// RemoveFavoriteHandler removes a song from the caller's favorites.
func (h *APIHandler) RemoveFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	h.favoriteUpdate(w, r, false)
}

func (h *APIHandler) favoriteUpdate(w http.ResponseWriter, r *http.Request, add bool) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.KindValidationFailed, "invalid request body"))
		return
	}
	songID, err := repository.ParseID(req.SongID)
	if err != nil {
		writeError(w, err)
		return
	}

	song, err := h.songs.FindByID(r.Context(), songID)
	if err != nil {
		writeError(w, err)
		return
	}
	if song == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "song not found"))
		return
	}

	var user *model.User
	if add {
		user, err = h.users.AddFavorite(r.Context(), userID, songID)
	} else {
		user, err = h.users.RemoveFavorite(r.Context(), userID, songID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "user not found"))
		return
	}
	writeData(w, http.StatusOK, user)
}

// ListUsersHandler pages through accounts.
func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.Paginate(r.Context(), pageOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, page)
}
