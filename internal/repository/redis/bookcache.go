package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	apperrors "github.com/HadesXChaos/WebBookRate/pkg/errors"
)

const bookKeyPrefix = "book:"

// BookCache is a read-through cache for book rows. Entries are
// invalidated whenever the book or any of its reviews changes, so a
// stale aggregate never outlives the TTL.
type BookCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBookCache creates a new Redis-backed book cache.
func NewBookCache(client *redis.Client, ttl time.Duration) *BookCache {
	return &BookCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached book by ID. Returns ErrNotFound on a cache
// miss.
func (c *BookCache) Get(ctx context.Context, id string) (*domain.Book, error) {
	data, err := c.client.Get(ctx, bookKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("book", id)
		}
		return nil, fmt.Errorf("redis get book: %w", err)
	}

	var book domain.Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("unmarshal cached book: %w", err)
	}
	return &book, nil
}

// Set stores a book with the configured TTL.
func (c *BookCache) Set(ctx context.Context, book *domain.Book) error {
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshal book: %w", err)
	}

	if err := c.client.Set(ctx, bookKeyPrefix+book.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set book: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for a book.
func (c *BookCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, bookKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del book: %w", err)
	}
	return nil
}
