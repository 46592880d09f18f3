package server

import (
	"encoding/json"
	"net/http"

	"melodex/apperr"
	"melodex/core/auth"
	"melodex/logger"
	"melodex/model"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	UserName  string `json:"userName"`
	IsAuthor  bool   `json:"isAuthor"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// RegisterHandler creates a new account and signs it in.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.KindValidationFailed, "invalid request body"))
		return
	}

	if l := len(req.Password); l < 8 || l > 100 {
		writeError(w, apperr.New(apperr.KindValidationFailed, "password must be 8-100 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		UserName:     req.UserName,
		IsAuthor:     req.IsAuthor,
	}
	if err := user.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.users.Insert(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.verifier.GenerateToken(created.ID.Hex(), created.Email, created.Role())
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Info("user registered", logger.String("userId", created.ID.Hex()))
	writeData(w, http.StatusCreated, authResponse{Token: token, User: created})
}

// LoginHandler verifies credentials and issues a token. Soft-deleted accounts
// are rejected with the same error as a wrong password.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.KindValidationFailed, "invalid request body"))
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil || user.DeletedAt != nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, apperr.New(apperr.KindUnauthorized, "invalid email or password"))
		return
	}

	token, err := h.verifier.GenerateToken(user.ID.Hex(), user.Email, user.Role())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, authResponse{Token: token, User: user})
}

// LogoutHandler exists for client symmetry. Tokens are stateless; the client
// discards its copy.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"message": "logged out"})
}
