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

// SongFilter narrows paginated song queries.
type SongFilter struct {
	Title    string              // case-insensitive substring match
	Category *primitive.ObjectID // songs tagged with this category
}

// SongRepository defines the catalog operations for songs. Lookups return
// (nil, nil) when no document matches.
type SongRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Song, error)
	FindByTitle(ctx context.Context, title string) (*model.Song, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Song, error)
	Insert(ctx context.Context, song *model.Song) (*model.Song, error)
	Update(ctx context.Context, id primitive.ObjectID, patch *model.SongPatch) (*model.Song, error)
	Remove(ctx context.Context, id primitive.ObjectID) error
	Paginate(ctx context.Context, filter SongFilter, opts PageOptions) (*Page[*model.Song], error)
	CategoriesInUse(ctx context.Context) ([]primitive.ObjectID, error)
}

// mongoSongRepository implements SongRepository against MongoDB.
type mongoSongRepository struct {
	coll *mongo.Collection
}

// NewMongoSongRepository creates a SongRepository backed by the songs
// collection.
func NewMongoSongRepository(db *mongo.Database) SongRepository {
	return &mongoSongRepository{coll: db.Collection(songsCollection)}
}

func (r *mongoSongRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Song, error) {
	song := &model.Song{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(song)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not load song", err)
	}
	return song, nil
}

func (r *mongoSongRepository) FindByTitle(ctx context.Context, title string) (*model.Song, error) {
	song := &model.Song{}
	err := r.coll.FindOne(ctx, bson.M{"title": title}).Decode(song)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not load song", err)
	}
	return song, nil
}

// FindByIDs loads the given songs, preserving the order of ids. Missing ids
// are skipped; playlists tolerate dangling references.
func (r *mongoSongRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Song, error) {
	if len(ids) == 0 {
		return []*model.Song{}, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not load songs", err)
	}
	defer cursor.Close(ctx)

	byID := make(map[primitive.ObjectID]*model.Song, len(ids))
	for cursor.Next(ctx) {
		song := &model.Song{}
		if err := cursor.Decode(song); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not load songs", err)
		}
		byID[song.ID] = song
	}
	if err := cursor.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not load songs", err)
	}

	songs := make([]*model.Song, 0, len(ids))
	for _, id := range ids {
		if song, ok := byID[id]; ok {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

// Insert persists a new song. A unique-index violation on title is mapped to
// DuplicateTitle so a create race surfaces the same way as the pre-check.
func (r *mongoSongRepository) Insert(ctx context.Context, song *model.Song) (*model.Song, error) {
	now := time.Now().UTC()
	song.CreatedAt = now
	song.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, song)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(apperr.KindDuplicateTitle, "a song with that title already exists", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not create song", err)
	}

	song.ID = res.InsertedID.(primitive.ObjectID)
	return song, nil
}

func (r *mongoSongRepository) Update(ctx context.Context, id primitive.ObjectID, patch *model.SongPatch) (*model.Song, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Artist != nil {
		set["artist"] = *patch.Artist
	}
	if patch.URL != nil {
		set["url"] = *patch.URL
	}
	if patch.Duration != nil {
		set["duration"] = *patch.Duration
	}
	if patch.PosterImage != nil {
		set["posterImage"] = *patch.PosterImage
	}
	if len(patch.Category) > 0 {
		set["category"] = patch.Category
	}

	updated := &model.Song{}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(apperr.KindDuplicateTitle, "a song with that title already exists", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not update song", err)
	}
	return updated, nil
}

func (r *mongoSongRepository) Remove(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not delete song", err)
	}
	return nil
}

func (r *mongoSongRepository) Paginate(ctx context.Context, filter SongFilter, opts PageOptions) (*Page[*model.Song], error) {
	query := bson.M{}
	if filter.Title != "" {
		query["title"] = bson.M{"$regex": filter.Title, "$options": "i"}
	}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}
	return paginate[*model.Song](ctx, r.coll, query, opts)
}

// CategoriesInUse returns the distinct category ids referenced by songs.
func (r *mongoSongRepository) CategoriesInUse(ctx context.Context) ([]primitive.ObjectID, error) {
	raw, err := r.coll.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not list categories in use", err)
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, value := range raw {
		if id, ok := value.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
