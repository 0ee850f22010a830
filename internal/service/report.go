package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/internal/repository"
	apperrors "github.com/HadesXChaos/WebBookRate/pkg/errors"
)

// CreateReportInput holds the parameters for filing a report.
type CreateReportInput struct {
	ReporterID string
	TargetKind string
	TargetID   string
	Reason     string
	Note       string
}

// ReportService implements the business logic for moderation reports.
type ReportService struct {
	repo     repository.ReportRepository
	resolver repository.TargetResolver
	audit    repository.AuditLogRepository
	logger   *slog.Logger
}

// NewReportService creates a new report service.
func NewReportService(
	repo repository.ReportRepository,
	resolver repository.TargetResolver,
	audit repository.AuditLogRepository,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		repo:     repo,
		resolver: resolver,
		audit:    audit,
		logger:   logger,
	}
}

// CreateReport validates the target and files a new open report.
func (s *ReportService) CreateReport(ctx context.Context, input *CreateReportInput) (*domain.Report, error) {
	if input.Reason == "" {
		return nil, apperrors.InvalidInput("reason is required")
	}

	target, err := domain.NewTarget(domain.TargetKind(input.TargetKind), input.TargetID)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	exists, err := s.resolver.Exists(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("resolve report target: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound(string(target.Kind), target.ID)
	}

	now := time.Now().UTC()
	report := &domain.Report{
		ID:         uuid.New().String(),
		ReporterID: input.ReporterID,
		Target:     target,
		Reason:     input.Reason,
		Note:       input.Note,
		Status:     domain.ReportStatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	s.logger.InfoContext(ctx, "report filed",
		slog.String("report_id", report.ID),
		slog.String("target_kind", string(target.Kind)),
		slog.String("target_id", target.ID),
	)

	return report, nil
}

// GetReport retrieves a report by ID.
func (s *ReportService) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

// ListReports retrieves a page of reports, optionally filtered by
// status.
func (s *ReportService) ListReports(ctx context.Context, status *string, page, perPage int) ([]domain.Report, int, error) {
	if status != nil && !domain.IsValidReportStatus(*status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown report status %q", *status))
	}

	reports, total, err := s.repo.List(ctx, status, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	return reports, total, nil
}

// ResolveReport moves a report to a terminal or in-progress status and
// records the moderator action in the audit log.
func (s *ReportService) ResolveReport(ctx context.Context, id, actorID, status string) (*domain.Report, error) {
	if !domain.IsValidReportStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown report status %q", status))
	}

	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if report.Status == domain.ReportStatusResolved || report.Status == domain.ReportStatusDismissed {
		return nil, apperrors.Unprocessable("report is already closed")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update report status: %w", err)
	}
	report.Status = status
	report.UpdatedAt = time.Now().UTC()

	entry := &domain.AuditLog{
		ID:      uuid.New().String(),
		ActorID: actorID,
		Action:  domain.AuditReportResolved,
		Target:  report.Target,
		Metadata: map[string]any{
			"report_id": report.ID,
			"status":    status,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to record report audit entry",
			slog.String("report_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "report resolved",
		slog.String("report_id", id),
		slog.String("status", status),
		slog.String("actor_id", actorID),
	)

	return report, nil
}

// ListAuditLog retrieves a page of audit entries for a target.
func (s *ReportService) ListAuditLog(ctx context.Context, kind, id string, page, perPage int) ([]domain.AuditLog, int, error) {
	target, err := domain.NewTarget(domain.TargetKind(kind), id)
	if err != nil {
		return nil, 0, apperrors.InvalidInput(err.Error())
	}

	entries, total, err := s.audit.ListByTarget(ctx, target, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	if entries == nil {
		entries = []domain.AuditLog{}
	}
	return entries, total, nil
}
