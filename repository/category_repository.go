package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"melodex/apperr"
	"melodex/model"
)

// CategoryRepository defines the catalog operations for categories. Lookups
// return (nil, nil) when no document matches.
type CategoryRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	Insert(ctx context.Context, category *model.Category) (*model.Category, error)
	List(ctx context.Context) ([]*model.Category, error)
	Remove(ctx context.Context, id primitive.ObjectID) error
}

// mongoCategoryRepository implements CategoryRepository against MongoDB.
type mongoCategoryRepository struct {
	coll *mongo.Collection
}

// NewMongoCategoryRepository creates a CategoryRepository backed by the
// categories collection.
func NewMongoCategoryRepository(db *mongo.Database) CategoryRepository {
	return &mongoCategoryRepository{coll: db.Collection(categoriesCollection)}
}

func (r *mongoCategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error) {
	category := &model.Category{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(category)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not load category", err)
	}
	return category, nil
}

func (r *mongoCategoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	category := &model.Category{}
	err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(category)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not load category", err)
	}
	return category, nil
}

func (r *mongoCategoryRepository) Insert(ctx context.Context, category *model.Category) (*model.Category, error) {
	res, err := r.coll.InsertOne(ctx, category)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(apperr.KindDuplicateEntry, "a category with that name already exists", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "could not create category", err)
	}
	category.ID = res.InsertedID.(primitive.ObjectID)
	return category, nil
}

func (r *mongoCategoryRepository) List(ctx context.Context) ([]*model.Category, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not list categories", err)
	}
	defer cursor.Close(ctx)

	categories := make([]*model.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not list categories", err)
	}
	return categories, nil
}

func (r *mongoCategoryRepository) Remove(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not delete category", err)
	}
	return nil
}
