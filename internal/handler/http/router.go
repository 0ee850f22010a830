package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HadesXChaos/WebBookRate/internal/auth"
	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/health"
	"github.com/HadesXChaos/WebBookRate/pkg/middleware"
)

// RouterConfig bundles the services and infrastructure a router needs.
type RouterConfig struct {
	Books         *service.BookService
	Authors       *service.AuthorService
	Reviews       *service.ReviewService
	Comments      *service.CommentService
	Reactions     *service.ReactionService
	Shelves       *service.BookshelfService
	ReadingStatus *service.ReadingStatusService
	Reports       *service.ReportService
	Search        *service.SearchService
	Indexer       *service.IndexerService

	JWTManager    *auth.JWTManager
	HealthHandler *health.Handler
	Logger        *slog.Logger
	CORS          middleware.CORSConfig

	// Per-IP rate limit applied to mutating endpoints.
	RateLimitRPS   int
	RateLimitBurst int

	// CIDRs allowed to reach the pprof debug endpoints. Empty
	// disables them.
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("bookrate"))
	r.Use(middleware.Tracing("bookrate"))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, cfg.Logger)
	}

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := cfg.JWTManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Role:   claims.Role,
		}, nil
	}

	authed := middleware.Auth(tokenValidator)
	moderatorOnly := middleware.RequireRole(auth.RoleModerator)
	writeLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Logger)
	// Catalog and search responses are identical for every caller, so
	// intermediaries may cache them briefly.
	publicCache := middleware.CacheControl(60)

	bookHandler := NewBookHandler(cfg.Books, cfg.Logger)
	authorHandler := NewAuthorHandler(cfg.Authors, cfg.Logger)
	reviewHandler := NewReviewHandler(cfg.Reviews, cfg.Logger)
	commentHandler := NewCommentHandler(cfg.Comments, cfg.Logger)
	reactionHandler := NewReactionHandler(cfg.Reactions, cfg.Logger)
	shelfHandler := NewBookshelfHandler(cfg.Shelves, cfg.Logger)
	statusHandler := NewReadingStatusHandler(cfg.ReadingStatus, cfg.Logger)
	reportHandler := NewReportHandler(cfg.Reports, cfg.Logger)
	searchHandler := NewSearchHandler(cfg.Search, cfg.Indexer, cfg.Logger)

	// Public catalog reads
	r.Route("/api/v1/books", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(publicCache).Get("/", bookHandler.ListBooks)
		r.With(publicCache).Get("/{idOrSlug}", bookHandler.GetBook)
		r.Get("/{bookId}/reviews", reviewHandler.ListReviews)
		r.Get("/{bookId}/reviews/summary", reviewHandler.GetReviewSummary)

		// Catalog writes are restricted to moderators.
		r.Group(func(r chi.Router) {
			r.Use(authed, moderatorOnly, writeLimit)

			r.Post("/", bookHandler.CreateBook)
			r.Put("/{id}", bookHandler.UpdateBook)
			r.Delete("/{id}", bookHandler.DeleteBook)
		})

		// Reader interactions require a valid token.
		r.Group(func(r chi.Router) {
			r.Use(authed, writeLimit)

			r.Post("/{bookId}/reviews", reviewHandler.CreateReview)
			r.Put("/{bookId}/reading-status", statusHandler.SetStatus)
			r.Get("/{bookId}/reading-status", statusHandler.GetStatus)
			r.Delete("/{bookId}/reading-status", statusHandler.ClearStatus)
		})
	})

	r.Route("/api/v1/authors", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(publicCache).Get("/", authorHandler.ListAuthors)
		r.With(publicCache).Get("/{idOrSlug}", authorHandler.GetAuthor)

		r.Group(func(r chi.Router) {
			r.Use(authed, moderatorOnly, writeLimit)

			r.Post("/", authorHandler.CreateAuthor)
			r.Put("/{id}", authorHandler.UpdateAuthor)
			r.Delete("/{id}", authorHandler.DeleteAuthor)
		})
	})

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/{id}", reviewHandler.GetReview)
		r.Get("/{reviewId}/comments", commentHandler.ListComments)

		r.Group(func(r chi.Router) {
			r.Use(authed, writeLimit)

			r.Put("/{id}", reviewHandler.UpdateReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)

			r.Post("/{reviewId}/comments", commentHandler.CreateComment)

			r.Put("/{reviewId}/reaction", reactionHandler.SetReaction)
			r.Post("/{reviewId}/reaction/toggle", reactionHandler.ToggleReaction)
			r.Get("/{reviewId}/reaction", reactionHandler.GetReaction)
			r.Delete("/{reviewId}/reaction", reactionHandler.RemoveReaction)
		})
	})

	r.Route("/api/v1/comments", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authed, writeLimit)

		r.Put("/{id}", commentHandler.UpdateComment)
		r.Delete("/{id}", commentHandler.DeleteComment)
	})

	r.Route("/api/v1/shelves", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authed)

		r.Get("/{id}", shelfHandler.GetShelf)
		r.Get("/{id}/books", shelfHandler.ListShelfBooks)

		r.Group(func(r chi.Router) {
			r.Use(writeLimit)

			r.Post("/", shelfHandler.CreateShelf)
			r.Put("/{id}", shelfHandler.UpdateShelf)
			r.Delete("/{id}", shelfHandler.DeleteShelf)
			r.Post("/{id}/books", shelfHandler.AddShelfBook)
			r.Delete("/{id}/books/{bookId}", shelfHandler.RemoveShelfBook)
		})
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authed)

		r.Get("/{userId}/shelves", shelfHandler.ListShelves)
		r.Get("/me/reading-statuses", statusHandler.ListStatuses)
	})

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Use(publicCache)

		r.Get("/books", searchHandler.SearchBooks)
		r.Get("/authors", searchHandler.SearchAuthors)
		r.Get("/reviews", searchHandler.SearchReviews)
	})

	// Moderation
	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authed)

		r.With(writeLimit).Post("/", reportHandler.CreateReport)

		r.Group(func(r chi.Router) {
			r.Use(moderatorOnly)

			r.Get("/", reportHandler.ListReports)
			r.Get("/{id}", reportHandler.GetReport)
			r.Put("/{id}/status", reportHandler.ResolveReport)
		})
	})

	r.Route("/api/v1/audit-log", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authed, moderatorOnly)

		r.Get("/", reportHandler.ListAuditLog)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authed, moderatorOnly)

		r.Post("/reindex", searchHandler.Reindex)
	})

	return r
}
