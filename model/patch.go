package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// SongPatch is a partial update for a song. Nil fields are left untouched.
type SongPatch struct {
	Title       *string
	Artist      *string
	URL         *string
	Duration    *float64
	PosterImage *string
	Category    []primitive.ObjectID
}

// ApplyTo merges the patch into a song in place, used to validate the
// resulting record before it is persisted.
func (p *SongPatch) ApplyTo(s *Song) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Artist != nil {
		s.Artist = *p.Artist
	}
	if p.URL != nil {
		s.URL = *p.URL
	}
	if p.Duration != nil {
		s.Duration = *p.Duration
	}
	if p.PosterImage != nil {
		s.PosterImage = *p.PosterImage
	}
	if len(p.Category) > 0 {
		s.Category = p.Category
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p *SongPatch) IsEmpty() bool {
	return p.Title == nil && p.Artist == nil && p.URL == nil &&
		p.Duration == nil && p.PosterImage == nil && len(p.Category) == 0
}
