package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/logger"
	"melodex/model"
	"melodex/repository"
)

const categoryKeyPrefix = "melodex:category:name:"

// CategoryCache is a read-through Redis cache in front of a
// CategoryRepository. Only name lookups are cached; the import pipeline
// resolves its fixed category by name on every import. Writes invalidate by
// name so a recreated category is never served stale.
type CategoryCache struct {
	inner  repository.CategoryRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCategoryCache wraps a CategoryRepository with a name-lookup cache.
func NewCategoryCache(inner repository.CategoryRepository, client *redis.Client, ttl time.Duration) *CategoryCache {
	return &CategoryCache{inner: inner, client: client, ttl: ttl}
}

func (c *CategoryCache) FindByName(ctx context.Context, name string) (*model.Category, error) {
	raw, err := c.client.Get(ctx, categoryKeyPrefix+name).Bytes()
	if err == nil {
		category := &model.Category{}
		if err := json.Unmarshal(raw, category); err == nil {
			return category, nil
		}
	} else if err != redis.Nil {
		logger.Warn("category cache read failed", logger.String("name", name), logger.ErrorField(err))
	}

	category, err := c.inner.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if category != nil {
		if raw, err := json.Marshal(category); err == nil {
			if err := c.client.Set(ctx, categoryKeyPrefix+name, raw, c.ttl).Err(); err != nil {
				logger.Warn("category cache write failed", logger.String("name", name), logger.ErrorField(err))
			}
		}
	}
	return category, nil
}

func (c *CategoryCache) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error) {
	return c.inner.FindByID(ctx, id)
}

func (c *CategoryCache) Insert(ctx context.Context, category *model.Category) (*model.Category, error) {
	created, err := c.inner.Insert(ctx, category)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, created.Name)
	return created, nil
}

func (c *CategoryCache) List(ctx context.Context) ([]*model.Category, error) {
	return c.inner.List(ctx)
}

func (c *CategoryCache) Remove(ctx context.Context, id primitive.ObjectID) error {
	category, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.inner.Remove(ctx, id); err != nil {
		return err
	}
	if category != nil {
		c.invalidate(ctx, category.Name)
	}
	return nil
}

func (c *CategoryCache) invalidate(ctx context.Context, name string) {
	if err := c.client.Del(ctx, categoryKeyPrefix+name).Err(); err != nil {
		logger.Warn("category cache invalidation failed", logger.String("name", name), logger.ErrorField(err))
	}
}
