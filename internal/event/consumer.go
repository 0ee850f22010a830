package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	apperrors "github.com/HadesXChaos/WebBookRate/pkg/errors"
	pkgkafka "github.com/HadesXChaos/WebBookRate/pkg/kafka"
)

// Indexer is the slice of the indexer service the consumer needs.
// Declared here so internal/event does not import internal/service,
// which would close an import cycle (service already imports event).
type Indexer interface {
	IndexBook(ctx context.Context, id string) error
	DeleteBookDocument(ctx context.Context, id string) error
	IndexReview(ctx context.Context, id string) error
	DeleteReviewDocument(ctx context.Context, id, bookID string) error
}

// IndexConsumer applies book and review events to the search indexes.
// Missing projections are treated as already-deleted rows, not
// failures, so replayed or out-of-order events converge instead of
// looping through the DLQ.
type IndexConsumer struct {
	indexer Indexer
	logger  *slog.Logger
}

// NewIndexConsumer creates a new index consumer.
func NewIndexConsumer(indexer Indexer, logger *slog.Logger) *IndexConsumer {
	return &IndexConsumer{
		indexer: indexer,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *IndexConsumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicBookCreated, TopicBookUpdated:
		return c.handleBookUpsert(ctx, event)
	case TopicBookDeleted:
		return c.handleBookDeleted(ctx, event)
	case TopicReviewCreated, TopicReviewUpdated:
		return c.handleReviewUpsert(ctx, event)
	case TopicReviewDeleted:
		return c.handleReviewDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *IndexConsumer) handleBookUpsert(ctx context.Context, event *pkgkafka.Event) error {
	var data BookEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	if err := c.indexer.IndexBook(ctx, data.BookID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return c.indexer.DeleteBookDocument(ctx, data.BookID)
		}
		return fmt.Errorf("index book from %s event: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "indexed book from event",
		slog.String("event_type", event.EventType),
		slog.String("book_id", data.BookID),
	)
	return nil
}

func (c *IndexConsumer) handleBookDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data BookEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	if err := c.indexer.DeleteBookDocument(ctx, data.BookID); err != nil {
		return fmt.Errorf("delete book from %s event: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "removed book from index",
		slog.String("book_id", data.BookID),
	)
	return nil
}

func (c *IndexConsumer) handleReviewUpsert(ctx context.Context, event *pkgkafka.Event) error {
	var data ReviewEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	// Only published reviews live in the index. A review that left the
	// published state is removed; its book document is refreshed either
	// way so the aggregate stays current.
	if data.Status != domain.ReviewStatusPublished {
		return c.indexer.DeleteReviewDocument(ctx, data.ReviewID, data.BookID)
	}

	if err := c.indexer.IndexReview(ctx, data.ReviewID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return c.indexer.DeleteReviewDocument(ctx, data.ReviewID, data.BookID)
		}
		return fmt.Errorf("index review from %s event: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "indexed review from event",
		slog.String("event_type", event.EventType),
		slog.String("review_id", data.ReviewID),
		slog.String("book_id", data.BookID),
	)
	return nil
}

func (c *IndexConsumer) handleReviewDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ReviewEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	if err := c.indexer.DeleteReviewDocument(ctx, data.ReviewID, data.BookID); err != nil {
		return fmt.Errorf("delete review from %s event: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "removed review from index",
		slog.String("review_id", data.ReviewID),
	)
	return nil
}
