package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
)

// Category tags songs. The import pipeline resolves a fixed category by name
// to tag imported songs; that category is provisioned out-of-band.
type Category struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name string             `bson:"name" json:"name"`
}

// Validate checks the category fields.
func (c *Category) Validate() error {
	if l := len(c.Name); l < 1 || l > 100 {
		return apperr.New(apperr.KindValidationFailed, "name must be 1-100 characters")
	}
	return nil
}
