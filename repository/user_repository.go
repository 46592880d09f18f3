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

// UserProfilePatch is a partial profile update. Nil fields are left
// untouched. PasswordHash is set by the handler only after the current
// password was verified.
type UserProfilePatch struct {
	Email        *string
	FirstName    *string
	LastName     *string
	UserName     *string
	PasswordHash *string
}

// UserRepository defines the catalog operations for accounts. Lookups return
// (nil, nil) when no document matches.
type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Insert(ctx context.Context, user *model.User) (*model.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, patch *UserProfilePatch) (*model.User, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	AppendCreatedSong(ctx context.Context, userID, songID primitive.ObjectID) error
	AddFavorite(ctx context.Context, userID, songID primitive.ObjectID) (*model.User, error)
	RemoveFavorite(ctx context.Context, userID, songID primitive.ObjectID) (*model.User, error)
	Paginate(ctx context.Context, opts PageOptions) (*Page[*model.User], error)
}

// mongoUserRepository implements UserRepository against MongoDB.
type mongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a UserRepository backed by the users
// collection.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(usersCollection)}
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	user := &model.User{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not load user", err)
	}
	return user, nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not load user", err)
	}
	return user, nil
}

func (r *mongoUserRepository) Insert(ctx context.Context, user *model.User) (*model.User, error) {
	user.CreatedAt = time.Now().UTC()
	if user.CreatedSongs == nil {
		user.CreatedSongs = []primitive.ObjectID{}
	}
	if user.FavoriteSongs == nil {
		user.FavoriteSongs = []primitive.ObjectID{}
	}

	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(apperr.KindDuplicateEntry, "email or user name already registered", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not create user", err)
	}

	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

func (r *mongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, patch *UserProfilePatch) (*model.User, error) {
	set := bson.M{}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.FirstName != nil {
		set["firstName"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["lastName"] = *patch.LastName
	}
	if patch.UserName != nil {
		set["userName"] = *patch.UserName
	}
	if patch.PasswordHash != nil {
		set["passwordHash"] = *patch.PasswordHash
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	updated := &model.User{}
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
			return nil, apperr.Wrap(apperr.KindDuplicateEntry, "email or user name already registered", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not update user", err)
	}
	return updated, nil
}

// SoftDelete marks the account deleted without removing the document.
func (r *mongoUserRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	updated := &model.User{}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"deletedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not delete user", err)
	}
	return updated, nil
}

// AppendCreatedSong atomically appends a song reference to the owner's
// created list. Only the ingestion pipeline calls this, after a successful
// song creation.
func (r *mongoUserRepository) AppendCreatedSong(ctx context.Context, userID, songID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"createdSongs": songID}},
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not update user's created songs", err)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	return nil
}

// AddFavorite adds the song to the user's favorites with set semantics.
func (r *mongoUserRepository) AddFavorite(ctx context.Context, userID, songID primitive.ObjectID) (*model.User, error) {
	return r.favoriteUpdate(ctx, userID, bson.M{"$addToSet": bson.M{"favoriteSongs": songID}})
}

// RemoveFavorite removes the song from the user's favorites.
func (r *mongoUserRepository) RemoveFavorite(ctx context.Context, userID, songID primitive.ObjectID) (*model.User, error) {
	return r.favoriteUpdate(ctx, userID, bson.M{"$pull": bson.M{"favoriteSongs": songID}})
}

func (r *mongoUserRepository) favoriteUpdate(ctx context.Context, userID primitive.ObjectID, update bson.M) (*model.User, error) {
	updated := &model.User{}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not update favorites", err)
	}
	return updated, nil
}

func (r *mongoUserRepository) Paginate(ctx context.Context, opts PageOptions) (*Page[*model.User], error) {
	return paginate[*model.User](ctx, r.coll, bson.M{}, opts)
}
