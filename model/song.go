package model

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
)

// DefaultPosterImage is used when a song is created without cover art.
const DefaultPosterImage = "https://i.postimg.cc/xTSJhVPn/Chat-GPT-Image-26-jun-2025-06-32-14-p-m.png"

var (
	audioURLPattern  = regexp.MustCompile(`(?i)^https?://.+\.(mp3|wav|ogg|m4a|aac|flac|alac|wma|aiff|ape|opus|amr|mp4|webm)$`)
	posterURLPattern = regexp.MustCompile(`^https?://.+\.(jpg|jpeg|png|gif|webp)$`)
)

// Song represents a catalog entry backed by an audio blob. The URL always
// points at a blob that exists for as long as the record does; the ingestion
// pipeline enforces this with compensating deletes.
type Song struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string               `bson:"title" json:"title"`
	Artist      string               `bson:"artist" json:"artist"`
	URL         string               `bson:"url" json:"url"`
	Duration    float64              `bson:"duration" json:"duration"`
	PosterImage string               `bson:"posterImage" json:"posterImage"`
	Category    []primitive.ObjectID `bson:"category" json:"category"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the full field set against the catalog invariants.
func (s *Song) Validate() error {
	if l := len(s.Title); l < 1 || l > 100 {
		return apperr.New(apperr.KindValidationFailed, "title must be 1-100 characters")
	}
	if l := len(s.Artist); l < 1 || l > 100 {
		return apperr.New(apperr.KindValidationFailed, "artist must be 1-100 characters")
	}
	if !audioURLPattern.MatchString(s.URL) {
		return apperr.New(apperr.KindValidationFailed, "url must be a valid audio file URL")
	}
	if s.Duration < 0 {
		return apperr.New(apperr.KindValidationFailed, "duration must not be negative")
	}
	if s.PosterImage != "" && !posterURLPattern.MatchString(s.PosterImage) {
		return apperr.New(apperr.KindValidationFailed, "posterImage must be a valid image URL")
	}
	if len(s.Category) == 0 {
		return apperr.New(apperr.KindValidationFailed, "at least one category is required")
	}
	return nil
}

// IsValidPosterURL reports whether a URL is acceptable as cover art.
func IsValidPosterURL(url string) bool {
	return posterURLPattern.MatchString(url)
}
