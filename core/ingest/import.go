package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
	"melodex/logger"
	"melodex/model"
)

// contentTypeForExt maps produced audio extensions to upload content types.
var contentTypeForExt = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".webm": "audio/webm",
	".wav":  "audio/wav",
}

// ImportFromURL turns a video URL into a catalog song: it fetches metadata,
// triggers a fire-and-forget audio extraction to local disk, waits for the
// produced file, then runs the same durable chain as direct upload. Any
// failure cleans up local temp files before propagating.
func (s *Service) ImportFromURL(ctx context.Context, url string, ownerID primitive.ObjectID) (*model.Song, error) {
	meta, err := s.source.FetchMetadata(ctx, url)
	if err != nil {
		return nil, err
	}

	// The import category is provisioned out-of-band; its absence is a
	// deployment problem, surfaced before any download starts.
	category, err := s.categories.FindByName(ctx, s.cfg.ImportCategoryName)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperr.Newf(apperr.KindConfigurationError,
			"import category %q does not exist; provision it before importing", s.cfg.ImportCategoryName)
	}

	existing, err := s.songs.FindByTitle(ctx, meta.Title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Newf(apperr.KindDuplicateTitle, "a song titled %q already exists", meta.Title)
	}

	artist := meta.Uploader
	if artist == "" {
		artist = "Unknown Artist"
	}
	poster := model.DefaultPosterImage
	if model.IsValidPosterURL(meta.Thumbnail) {
		poster = meta.Thumbnail
	}

	// The temp name carries a per-call token so concurrent imports of
	// identically-titled videos cannot collide on disk.
	base := Sanitize(meta.Title) + "-" + uuid.NewString()[:8]
	pattern := filepath.Join(s.cfg.ImportTempDir, base+".%(ext)s")

	if err := s.source.DownloadAudio(url, pattern); err != nil {
		return nil, err
	}

	produced, err := waitForFile(ctx, s.cfg.ImportTempDir, base, audioExtensions, s.cfg.PollInterval, s.cfg.ImportTimeout)
	if err != nil {
		removeTempFiles(s.cfg.ImportTempDir, base)
		return nil, err
	}

	data, err := os.ReadFile(produced)
	if err != nil {
		removeTempFiles(s.cfg.ImportTempDir, base)
		return nil, apperr.Wrap(apperr.KindInternal, "could not read extracted audio", err)
	}

	ext := strings.ToLower(filepath.Ext(produced))
	contentType, ok := contentTypeForExt[ext]
	if !ok {
		contentType = "application/octet-stream"
	}
	key := Sanitize(meta.Title) + ext

	song := &model.Song{
		Title:       meta.Title,
		Artist:      artist,
		URL:         s.publicURL(key),
		Duration:    meta.Duration,
		PosterImage: poster,
		Category:    []primitive.ObjectID{category.ID},
	}
	if err := song.Validate(); err != nil {
		removeTempFiles(s.cfg.ImportTempDir, base)
		return nil, err
	}

	persisted, err := s.storeSong(ctx, song, key, data, contentType, ownerID)
	// The local copy is no longer needed whether or not the store succeeded.
	removeTempFiles(s.cfg.ImportTempDir, base)
	if err != nil {
		return nil, err
	}

	logger.Info("video import completed",
		logger.String("url", url),
		logger.String("songId", persisted.ID.Hex()))
	return persisted, nil
}

// ImportMany imports several video URLs sequentially and returns the songs
// that succeeded alongside the per-URL failures.
func (s *Service) ImportMany(ctx context.Context, urls []string, ownerID primitive.ObjectID) ([]*model.Song, map[string]error) {
	songs := make([]*model.Song, 0, len(urls))
	failures := make(map[string]error)
	for _, url := range urls {
		song, err := s.ImportFromURL(ctx, url, ownerID)
		if err != nil {
			failures[url] = err
			continue
		}
		songs = append(songs, song)
	}
	return songs, failures
}
