package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
	"melodex/core/ingest"
	"melodex/model"
	"melodex/repository"
)

const maxUploadMemory = 32 << 20 // 32MB

// parseCategoryIDs parses a comma-separated list of category ids.
func parseCategoryIDs(raw string) ([]primitive.ObjectID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]primitive.ObjectID, 0, len(parts))
	for _, part := range parts {
		id, err := repository.ParseID(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// readUpload pulls the uploaded audio file out of the multipart form.
// Returns nil bytes when the field is absent.
func readUpload(r *http.Request, field string) ([]byte, string, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, "", "", nil
		}
		return nil, "", "", apperr.Wrap(apperr.KindValidationFailed, "could not read uploaded file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", "", apperr.Wrap(apperr.KindInternal, "could not read uploaded file", err)
	}
	return data, header.Filename, header.Header.Get("Content-Type"), nil
}

// CreateSongHandler ingests an uploaded audio file as a new song.
// Expected multipart form fields: file, title, artist, category (optional,
// comma-separated ids), posterImage (optional URL).
func (h *APIHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, apperr.Wrap(apperr.KindValidationFailed, "could not parse multipart form", err))
		return
	}

	data, fileName, mimeType, err := readUpload(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}
	if len(data) == 0 {
		writeError(w, apperr.New(apperr.KindValidationFailed, "missing 'file' in form"))
		return
	}

	categoryIDs, err := parseCategoryIDs(r.FormValue("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	song, err := h.ingestSvc.CreateFromUpload(r.Context(), ingest.UploadInput{
		Title:       r.FormValue("title"),
		Artist:      r.FormValue("artist"),
		Category:    categoryIDs,
		PosterImage: r.FormValue("posterImage"),
		FileBytes:   data,
		FileName:    fileName,
		MimeType:    mimeType,
		OwnerID:     ownerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, song)
}

// UpdateSongHandler applies a partial update. Form fields mirror creation;
// absent fields are left untouched, and a new file replaces the audio.
func (h *APIHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, apperr.Wrap(apperr.KindValidationFailed, "could not parse multipart form", err))
		return
	}

	in := ingest.UpdateInput{}
	if v := r.FormValue("title"); v != "" {
		in.Title = &v
	}
	if v := r.FormValue("artist"); v != "" {
		in.Artist = &v
	}
	if v := r.FormValue("posterImage"); v != "" {
		in.PosterImage = &v
	}
	categoryIDs, err := parseCategoryIDs(r.FormValue("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	in.Category = categoryIDs

	data, fileName, mimeType, err := readUpload(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}
	in.FileBytes = data
	in.FileName = fileName
	in.MimeType = mimeType

	song, err := h.ingestSvc.Update(r.Context(), songID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, song)
}

// DeleteSongHandler removes a song and its backing audio object.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.ingestSvc.Delete(r.Context(), songID); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "song deleted"})
}

// GetSongHandler returns a single song by id.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r)
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
	writeData(w, http.StatusOK, song)
}

// SearchSongsHandler pages through the catalog. Query parameters: title
// (case-insensitive substring), category (id), currentPage, limit.
func (h *APIHandler) SearchSongsHandler(w http.ResponseWriter, r *http.Request) {
	filter := repository.SongFilter{Title: r.URL.Query().Get("title")}
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := repository.ParseID(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Category = &id
	}

	page, err := h.songs.Paginate(r.Context(), filter, pageOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, page)
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// CreateCategoryHandler creates a category.
func (h *APIHandler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.KindValidationFailed, "invalid request body"))
		return
	}

	category := &model.Category{Name: req.Name}
	if err := category.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.categories.Insert(r.Context(), category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

// DeleteCategoryHandler removes a category that no song references.
func (h *APIHandler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	category, err := h.categories.FindByID(r.Context(), categoryID)
	if err != nil {
		writeError(w, err)
		return
	}
	if category == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "category not found"))
		return
	}

	inUse, err := h.songs.CategoriesInUse(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	for _, id := range inUse {
		if id == categoryID {
			writeError(w, apperr.New(apperr.KindValidationFailed, "category is still referenced by songs"))
			return
		}
	}

	if err := h.categories.Remove(r.Context(), categoryID); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// ListCategoriesHandler returns every category.
func (h *APIHandler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, categories)
}

// CategoriesInUseHandler returns only the categories referenced by at least
// one song.
func (h *APIHandler) CategoriesInUseHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := h.songs.CategoriesInUse(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	inUse := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		category, err := h.categories.FindByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if category != nil {
			inUse = append(inUse, category)
		}
	}
	writeData(w, http.StatusOK, inUse)
}
