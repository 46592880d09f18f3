package model

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
)

var (
	emailPattern    = regexp.MustCompile(`.+@.+\..+`)
	userNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// User represents an account. Accounts are soft-deleted: DeletedAt is set
// instead of removing the document, and sign-in rejects deleted accounts.
type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Email         string               `bson:"email" json:"email"`
	PasswordHash  string               `bson:"passwordHash" json:"-"`
	FirstName     string               `bson:"firstName" json:"firstName"`
	LastName      string               `bson:"lastName" json:"lastName"`
	UserName      string               `bson:"userName" json:"userName"`
	IsAuthor      bool                 `bson:"isAuthor" json:"isAuthor"`
	CreatedSongs  []primitive.ObjectID `bson:"createdSongs" json:"createdSongs"`
	FavoriteSongs []primitive.ObjectID `bson:"favoriteSongs" json:"favoriteSongs"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	DeletedAt     *time.Time           `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
}

// Role returns the authorization role carried in tokens for this user.
func (u *User) Role() string {
	if u.IsAuthor {
		return "author"
	}
	return "user"
}

// Validate checks the account fields.
func (u *User) Validate() error {
	if !emailPattern.MatchString(u.Email) {
		return apperr.New(apperr.KindValidationFailed, "invalid email format")
	}
	if u.PasswordHash == "" {
		return apperr.New(apperr.KindValidationFailed, "password is required")
	}
	if l := len(u.FirstName); l < 2 || l > 50 {
		return apperr.New(apperr.KindValidationFailed, "first name must be 2-50 characters")
	}
	if l := len(u.LastName); l < 2 || l > 50 {
		return apperr.New(apperr.KindValidationFailed, "last name must be 2-50 characters")
	}
	if l := len(u.UserName); l < 3 || l > 30 {
		return apperr.New(apperr.KindValidationFailed, "user name must be 3-30 characters")
	}
	if !userNamePattern.MatchString(u.UserName) {
		return apperr.New(apperr.KindValidationFailed, "user name may only contain letters, numbers and underscores")
	}
	return nil
}
