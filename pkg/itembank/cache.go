package itembank

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sentira-edu/platform/pkg/common/logger"
	"github.com/sentira-edu/platform/pkg/common/models"
)

// CachedSource is a read-through Redis cache in front of another Source.
// The item bank is read-only, so staleness is bounded only by the TTL and
// no invalidation protocol is needed.
type CachedSource struct {
	inner  Source
	client *redis.Client
	ttl    time.Duration
}

func NewCachedSource(inner Source, client *redis.Client, ttl time.Duration) *CachedSource {
	return &CachedSource{inner: inner, client: client, ttl: ttl}
}

func (c *CachedSource) ActiveItems(ctx context.Context, questionnaireRef string) ([]models.Item, error) {
	key := fmt.Sprintf("itembank:items:%s", questionnaireRef)

	if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var items []models.Item
		if err := json.Unmarshal(payload, &items); err == nil {
			return items, nil
		}
		logger.Log.WithField("key", key).Warn("Discarding undecodable item bank cache entry")
	}

	items, err := c.inner.ActiveItems(ctx, questionnaireRef)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(items); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			logger.Log.WithError(err).WithField("key", key).Warn("Failed to cache item bank")
		}
	}
	return items, nil
}

func (c *CachedSource) Item(ctx context.Context, id uuid.UUID) (models.Item, error) {
	return c.inner.Item(ctx, id)
}

func (c *CachedSource) Questionnaire(ctx context.Context, ref string) (models.Questionnaire, error) {
	key := fmt.Sprintf("itembank:questionnaire:%s", ref)

	if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var q models.Questionnaire
		if err := json.Unmarshal(payload, &q); err == nil {
			return q, nil
		}
	}

	q, err := c.inner.Questionnaire(ctx, ref)
	if err != nil {
		return models.Questionnaire{}, err
	}

	if payload, err := json.Marshal(q); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			logger.Log.WithError(err).WithField("key", key).Warn("Failed to cache questionnaire")
		}
	}
	return q, nil
}
