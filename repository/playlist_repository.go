package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"melodex/apperr"
	"melodex/model"
)

// PlaylistRepository defines the catalog operations for playlists. Lookups
// return (nil, nil) when no document matches.
type PlaylistRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Playlist, error)
	FindByName(ctx context.Context, name string) (*model.Playlist, error)
	Insert(ctx context.Context, playlist *model.Playlist) (*model.Playlist, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) (*model.Playlist, error)
	Remove(ctx context.Context, id primitive.ObjectID) error
	AddSong(ctx context.Context, playlistID, songID primitive.ObjectID) (*model.Playlist, error)
	RemoveSong(ctx context.Context, playlistID, songID primitive.ObjectID) (*model.Playlist, error)
	ByOwner(ctx context.Context, ownerID primitive.ObjectID, opts PageOptions) (*Page[*model.Playlist], error)
}

// mongoPlaylistRepository implements PlaylistRepository against MongoDB.
type mongoPlaylistRepository struct {
	coll *mongo.Collection
}

// NewMongoPlaylistRepository creates a PlaylistRepository backed by the
// playlists collection.
func NewMongoPlaylistRepository(db *mongo.Database) PlaylistRepository {
	return &mongoPlaylistRepository{coll: db.Collection(playlistsCollection)}
}

func (r *mongoPlaylistRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Playlist, error) {
	playlist := &model.Playlist{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(playlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not load playlist", err)
	}
	return playlist, nil
}

func (r *mongoPlaylistRepository) FindByName(ctx context.Context, name string) (*model.Playlist, error) {
	playlist := &model.Playlist{}
	err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(playlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not load playlist", err)
	}
	return playlist, nil
}

func (r *mongoPlaylistRepository) Insert(ctx context.Context, playlist *model.Playlist) (*model.Playlist, error) {
	playlist.CreatedAt = time.Now().UTC()
	if playlist.Songs == nil {
		playlist.Songs = []primitive.ObjectID{}
	}

	res, err := r.coll.InsertOne(ctx, playlist)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(apperr.KindDuplicateEntry, "a playlist with that name already exists", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not create playlist", err)
	}

	playlist.ID = res.InsertedID.(primitive.ObjectID)
	return playlist, nil
}

func (r *mongoPlaylistRepository) Rename(ctx context.Context, id primitive.ObjectID, name string) (*model.Playlist, error) {
	updated := &model.Playlist{}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(apperr.KindDuplicateEntry, "a playlist with that name already exists", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not rename playlist", err)
	}
	return updated, nil
}

func (r *mongoPlaylistRepository) Remove(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not delete playlist", err)
	}
	return nil
}

// AddSong appends a song reference. The membership pre-check lives in the
// catalog service; $push here keeps the document-level update atomic.
func (r *mongoPlaylistRepository) AddSong(ctx context.Context, playlistID, songID primitive.ObjectID) (*model.Playlist, error) {
	return r.membershipUpdate(ctx, playlistID, bson.M{"$push": bson.M{"songs": songID}})
}

// RemoveSong removes a song reference.
func (r *mongoPlaylistRepository) RemoveSong(ctx context.Context, playlistID, songID primitive.ObjectID) (*model.Playlist, error) {
	return r.membershipUpdate(ctx, playlistID, bson.M{"$pull": bson.M{"songs": songID}})
}

func (r *mongoPlaylistRepository) membershipUpdate(ctx context.Context, playlistID primitive.ObjectID, update bson.M) (*model.Playlist, error) {
	updated := &model.Playlist{}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": playlistID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not update playlist songs", err)
	}
	return updated, nil
}

func (r *mongoPlaylistRepository) ByOwner(ctx context.Context, ownerID primitive.ObjectID, opts PageOptions) (*Page[*model.Playlist], error) {
	return paginate[*model.Playlist](ctx, r.coll, bson.M{"ownerUserId": ownerID}, opts)
}
