package repository

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"melodex/apperr"
)

// Collection names in the catalog database.
const (
	songsCollection      = "songs"
	usersCollection      = "users"
	playlistsCollection  = "playlists"
	categoriesCollection = "categories"
)

// ParseID converts a 24-hex-character identifier into an ObjectID. Malformed
// input is rejected as InvalidId rather than bubbling a driver error.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Newf(apperr.KindInvalidID, "%q is not a valid 24-character id", hex)
	}
	return id, nil
}

// PageOptions selects a page of results.
type PageOptions struct {
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// normalize applies the documented defaults.
func (o PageOptions) normalize() PageOptions {
	if o.CurrentPage < 1 {
		o.CurrentPage = 1
	}
	if o.Limit < 1 {
		o.Limit = 10
	}
	return o
}

// Page is the pagination envelope returned by list operations.
type Page[T any] struct {
	Data        []T   `json:"data"`
	TotalItems  int64 `json:"totalItems"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
}

// paginate runs a filtered, skipped and limited find plus a count against a
// collection.
func paginate[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts PageOptions) (*Page[T], error) {
	opts = opts.normalize()
	skip := int64((opts.CurrentPage - 1) * opts.Limit)
	limit := int64(opts.Limit)

	cursor, err := coll.Find(ctx, filter, options.Find().SetSkip(skip).SetLimit(limit))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "catalog query failed", err)
	}
	defer cursor.Close(ctx)

	data := make([]T, 0, opts.Limit)
	if err := cursor.All(ctx, &data); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "catalog query failed", err)
	}

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "catalog query failed", err)
	}

	return &Page[T]{
		Data:        data,
		TotalItems:  total,
		CurrentPage: opts.CurrentPage,
		TotalPages:  int(math.Ceil(float64(total) / float64(opts.Limit))),
	}, nil
}
