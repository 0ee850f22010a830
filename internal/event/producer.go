package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	pkgkafka "github.com/HadesXChaos/WebBookRate/pkg/kafka"
)

// Kafka topic constants for book and review domain events.
const (
	TopicBookCreated = "bookrate.book.created"
	TopicBookUpdated = "bookrate.book.updated"
	TopicBookDeleted = "bookrate.book.deleted"

	TopicReviewCreated = "bookrate.review.created"
	TopicReviewUpdated = "bookrate.review.updated"
	TopicReviewDeleted = "bookrate.review.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeBook   = "book"
	AggregateTypeReview = "review"
)

// Source identifier for events originating from the API server.
const SourceAPI = "bookrate-api"

// BookEventData is the payload for book lifecycle events. Consumers
// re-read the projection from the primary store, so the payload only
// carries identity.
type BookEventData struct {
	BookID string `json:"book_id"`
	Slug   string `json:"slug"`
}

// ReviewEventData is the payload for review lifecycle events.
type ReviewEventData struct {
	ReviewID string  `json:"review_id"`
	BookID   string  `json:"book_id"`
	UserID   string  `json:"user_id"`
	Rating   float64 `json:"rating"`
	Status   string  `json:"status"`
}

// Producer publishes book and review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishBookEvent publishes a book lifecycle event on the given
// topic.
func (p *Producer) PublishBookEvent(ctx context.Context, topic string, book *domain.Book) error {
	data := BookEventData{
		BookID: book.ID,
		Slug:   book.Slug,
	}

	event, err := pkgkafka.NewEvent(topic, book.ID, AggregateTypeBook, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published book event",
		slog.String("topic", topic),
		slog.String("book_id", book.ID),
	)

	return nil
}

// PublishReviewEvent publishes a review lifecycle event on the given
// topic.
func (p *Producer) PublishReviewEvent(ctx context.Context, topic string, review *domain.Review) error {
	data := ReviewEventData{
		ReviewID: review.ID,
		BookID:   review.BookID,
		UserID:   review.UserID,
		Rating:   review.Rating,
		Status:   review.Status,
	}

	event, err := pkgkafka.NewEvent(topic, review.ID, AggregateTypeReview, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
	)

	return nil
}
