package ingest

import (
	"context"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
	"melodex/config"
	"melodex/core/audio"
	"melodex/core/youtube"
	"melodex/logger"
	"melodex/model"
	"melodex/storage"
)

// SongStore is the catalog boundary the pipeline needs for songs. Lookups
// return (nil, nil) when no document matches; Insert maps a unique-index
// violation on title to DuplicateTitle.
type SongStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Song, error)
	FindByTitle(ctx context.Context, title string) (*model.Song, error)
	Insert(ctx context.Context, song *model.Song) (*model.Song, error)
	Update(ctx context.Context, id primitive.ObjectID, patch *model.SongPatch) (*model.Song, error)
	Remove(ctx context.Context, id primitive.ObjectID) error
}

// UserStore is the catalog boundary for owner attribution.
type UserStore interface {
	AppendCreatedSong(ctx context.Context, userID, songID primitive.ObjectID) error
}

// CategoryStore resolves the fixed import category by name.
type CategoryStore interface {
	FindByName(ctx context.Context, name string) (*model.Category, error)
}

// SearchCache optionally memoizes import candidate searches.
type SearchCache interface {
	Get(ctx context.Context, query string) ([]Candidate, bool)
	Set(ctx context.Context, query string, candidates []Candidate)
}

// Service is the song-ingestion pipeline. It coordinates the blob store, the
// catalog store and the video source so that every ingestion call is
// all-or-nothing from the caller's perspective, even though it spans three
// independently-failing systems.
type Service struct {
	songs      SongStore
	users      UserStore
	categories CategoryStore
	blob       storage.BlobStore
	source     youtube.Source
	prober     audio.Prober
	cache      SearchCache
	cfg        *config.Config
}

// NewService wires the pipeline. cache may be nil.
func NewService(
	songs SongStore,
	users UserStore,
	categories CategoryStore,
	blob storage.BlobStore,
	source youtube.Source,
	prober audio.Prober,
	cache SearchCache,
	cfg *config.Config,
) *Service {
	return &Service{
		songs:      songs,
		users:      users,
		categories: categories,
		blob:       blob,
		source:     source,
		prober:     prober,
		cache:      cache,
		cfg:        cfg,
	}
}

// UploadInput is the typed request for direct-upload ingestion.
type UploadInput struct {
	Title       string
	Artist      string
	Category    []primitive.ObjectID
	PosterImage string
	FileBytes   []byte
	FileName    string
	MimeType    string
	OwnerID     primitive.ObjectID // zero means unattributed
}

// CreateFromUpload ingests an uploaded audio file. Validation and uniqueness
// failures surface before any byte is written anywhere; once the blob is
// uploaded, every later failure unwinds prior writes before propagating.
func (s *Service) CreateFromUpload(ctx context.Context, in UploadInput) (*model.Song, error) {
	existing, err := s.songs.FindByTitle(ctx, in.Title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Newf(apperr.KindDuplicateTitle, "a song titled %q already exists", in.Title)
	}

	duration, err := s.prober.Duration(ctx, in.FileBytes, in.MimeType)
	if err != nil {
		return nil, err
	}

	key, err := s.storageKey(in.Title, in.FileName)
	if err != nil {
		return nil, err
	}

	song := &model.Song{
		Title:       in.Title,
		Artist:      in.Artist,
		URL:         s.publicURL(key),
		Duration:    duration,
		PosterImage: in.PosterImage,
		Category:    in.Category,
	}
	if song.PosterImage == "" {
		song.PosterImage = model.DefaultPosterImage
	}
	// Validated before the upload so malformed metadata never causes an
	// orphaned blob.
	if err := song.Validate(); err != nil {
		return nil, err
	}

	return s.storeSong(ctx, song, key, in.FileBytes, in.MimeType, in.OwnerID)
}

// storeSong runs the durable half of ingestion shared by the upload and
// import paths: blob upload, catalog insert and owner attribution, with
// compensation in strict reverse order of the forward steps.
func (s *Service) storeSong(ctx context.Context, song *model.Song, key string, data []byte, contentType string, ownerID primitive.ObjectID) (*model.Song, error) {
	comp := &compensator{}

	path, err := s.blob.Put(ctx, key, data, contentType, false)
	if err != nil {
		return nil, err
	}
	comp.push("delete blob "+path, func(ctx context.Context) error {
		return s.blob.Delete(ctx, path)
	})

	song.URL = s.publicURL(path)
	persisted, err := s.songs.Insert(ctx, song)
	if err != nil {
		comp.run(ctx)
		return nil, err
	}
	comp.push("delete song record "+persisted.ID.Hex(), func(ctx context.Context) error {
		return s.songs.Remove(ctx, persisted.ID)
	})

	if !ownerID.IsZero() {
		if err := s.users.AppendCreatedSong(ctx, ownerID, persisted.ID); err != nil {
			comp.run(ctx)
			return nil, apperr.Wrap(apperr.KindReferenceUpdateFailed,
				"could not record the song on its owner; the song was rolled back", err)
		}
	}

	logger.Info("song ingested",
		logger.String("songId", persisted.ID.Hex()),
		logger.String("title", persisted.Title),
		logger.String("key", path))
	return persisted, nil
}

// UpdateInput is the typed patch for the update path. Nil fields are left
// untouched.
type UpdateInput struct {
	Title       *string
	Artist      *string
	Category    []primitive.ObjectID
	PosterImage *string
	FileBytes   []byte
	FileName    string
	MimeType    string
}

// Update applies a validated partial update. New file bytes are uploaded
// with overwrite allowed, unlike creation. The previous blob is kept unless
// DeleteOldBlobOnRename is set.
func (s *Service) Update(ctx context.Context, songID primitive.ObjectID, in UpdateInput) (*model.Song, error) {
	current, err := s.songs.FindByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.New(apperr.KindNotFound, "song not found")
	}

	if in.Title != nil && *in.Title != current.Title {
		existing, err := s.songs.FindByTitle(ctx, *in.Title)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.Newf(apperr.KindDuplicateTitle, "a song titled %q already exists", *in.Title)
		}
	}

	patch := &model.SongPatch{
		Title:       in.Title,
		Artist:      in.Artist,
		Category:    in.Category,
		PosterImage: in.PosterImage,
	}

	var oldKey string
	if len(in.FileBytes) > 0 {
		title := current.Title
		if in.Title != nil {
			title = *in.Title
		}
		key, err := s.storageKey(title, in.FileName)
		if err != nil {
			return nil, err
		}
		// Upsert semantics on update: overwriting an existing key is allowed.
		path, err := s.blob.Put(ctx, key, in.FileBytes, in.MimeType, true)
		if err != nil {
			return nil, err
		}
		url := s.publicURL(path)
		patch.URL = &url

		duration, err := s.prober.Duration(ctx, in.FileBytes, in.MimeType)
		if err != nil {
			return nil, err
		}
		patch.Duration = &duration

		if key != s.keyFromURL(current.URL) {
			oldKey = s.keyFromURL(current.URL)
		}
	}

	merged := *current
	patch.ApplyTo(&merged)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.songs.Update(ctx, songID, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.New(apperr.KindNotFound, "song not found")
	}

	// Old blob orphaning on rename is a policy decision, off by default.
	if oldKey != "" && s.cfg.DeleteOldBlobOnRename {
		if err := s.blob.Delete(ctx, oldKey); err != nil {
			logger.Warn("could not delete previous blob after rename",
				logger.String("key", oldKey),
				logger.ErrorField(err))
		}
	}

	return updated, nil
}

// Delete removes a song and its backing blob. The blob key is derived from
// the stored URL's last path segment; this is a heuristic, and blob removal
// is best effort so a missing object never strands the catalog record.
func (s *Service) Delete(ctx context.Context, songID primitive.ObjectID) error {
	song, err := s.songs.FindByID(ctx, songID)
	if err != nil {
		return err
	}
	if song == nil {
		return apperr.New(apperr.KindNotFound, "song not found")
	}

	if key := s.keyFromURL(song.URL); key != "" {
		if err := s.blob.Delete(ctx, key); err != nil {
			logger.Warn("could not delete blob for song",
				logger.String("songId", songID.Hex()),
				logger.String("key", key),
				logger.ErrorField(err))
		}
	}

	return s.songs.Remove(ctx, songID)
}

// storageKey derives the blob key from the title and the original file
// extension, applying the single sanitization rule.
func (s *Service) storageKey(title, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return "", apperr.New(apperr.KindValidationFailed, "file name must carry an audio extension")
	}
	return Sanitize(title) + ext, nil
}

// publicURL joins the configured public base URL with a blob path.
func (s *Service) publicURL(path string) string {
	return strings.TrimSuffix(s.cfg.PublicStorageBaseURL, "/") + "/" + path
}

// keyFromURL recovers the blob key from a persisted URL by taking its final
// path segment.
func (s *Service) keyFromURL(url string) string {
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		return ""
	}
	return url[idx+1:]
}
