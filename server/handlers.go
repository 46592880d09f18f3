package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/config"
	"melodex/core/auth"
	"melodex/core/catalog"
	"melodex/core/ingest"
	"melodex/repository"
)

// APIHandler handles all API requests.
type APIHandler struct {
	songs      repository.SongRepository
	users      repository.UserRepository
	playlists  repository.PlaylistRepository
	categories repository.CategoryRepository
	ingestSvc  *ingest.Service
	catalogSvc *catalog.Service
	verifier   *auth.Verifier
	cfg        *config.Config
}

// NewAPIHandler creates the API handler with all its collaborators.
func NewAPIHandler(
	songs repository.SongRepository,
	users repository.UserRepository,
	playlists repository.PlaylistRepository,
	categories repository.CategoryRepository,
	ingestSvc *ingest.Service,
	catalogSvc *catalog.Service,
	verifier *auth.Verifier,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		songs:      songs,
		users:      users,
		playlists:  playlists,
		categories: categories,
		ingestSvc:  ingestSvc,
		catalogSvc: catalogSvc,
		verifier:   verifier,
		cfg:        cfg,
	}
}

// pathID parses the {id} path variable as a catalog id.
func pathID(r *http.Request) (primitive.ObjectID, error) {
	return repository.ParseID(mux.Vars(r)["id"])
}

// pageOptionsFromQuery reads currentPage and limit from the query string.
// Absent or malformed values fall back to the defaults.
func pageOptionsFromQuery(r *http.Request) repository.PageOptions {
	opts := repository.PageOptions{}
	if v, err := strconv.Atoi(r.URL.Query().Get("currentPage")); err == nil {
		opts.CurrentPage = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		opts.Limit = v
	}
	return opts
}

// callerID resolves the authenticated user's id from the request context.
func callerID(r *http.Request) (primitive.ObjectID, error) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return repository.ParseID(claims.UserID)
}
