package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
)

// Playlist is an ordered list of song references owned by a user. The songs
// list never contains duplicates; membership updates enforce this.
type Playlist struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string               `bson:"name" json:"name"`
	OwnerUserID primitive.ObjectID   `bson:"ownerUserId" json:"ownerUserId"`
	Songs       []primitive.ObjectID `bson:"songs" json:"songs"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`

	// PosterImage is derived at read time from the first song that has
	// cover art; it is not persisted.
	PosterImage string `bson:"-" json:"posterImage,omitempty"`
}

// Contains reports whether the playlist already references the song.
func (p *Playlist) Contains(songID primitive.ObjectID) bool {
	for _, id := range p.Songs {
		if id == songID {
			return true
		}
	}
	return false
}

// Validate checks the playlist fields.
func (p *Playlist) Validate() error {
	if l := len(p.Name); l < 1 || l > 100 {
		return apperr.New(apperr.KindValidationFailed, "name must be 1-100 characters")
	}
	if p.OwnerUserID.IsZero() {
		return apperr.New(apperr.KindValidationFailed, "owner user id is required")
	}
	return nil
}
