package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HadesXChaos/WebBookRate/internal/domain"
	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/httputil"
	"github.com/HadesXChaos/WebBookRate/pkg/middleware"
	"github.com/HadesXChaos/WebBookRate/pkg/pagination"
	"github.com/HadesXChaos/WebBookRate/pkg/validator"
)

// ReportHandler handles HTTP requests for moderation report endpoints.
type ReportHandler struct {
	service *service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a new report HTTP handler.
func NewReportHandler(svc *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateReportRequest is the JSON request body for filing a report.
type CreateReportRequest struct {
	TargetKind string `json:"target_kind" validate:"required,oneof=book review comment user"`
	TargetID   string `json:"target_id" validate:"required,uuid"`
	Reason     string `json:"reason" validate:"required,min=1,max=255"`
	Note       string `json:"note" validate:"max=2000"`
}

// ResolveReportRequest is the JSON request body for closing a report.
type ResolveReportRequest struct {
	Status string `json:"status" validate:"required,oneof=reviewing resolved dismissed"`
}

// CreateReport handles POST /api/v1/reports
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	reporterID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	report, err := h.service.CreateReport(r.Context(), &service.CreateReportInput{
		ReporterID: reporterID,
		TargetKind: req.TargetKind,
		TargetID:   req.TargetID,
		Reason:     req.Reason,
		Note:       req.Note,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: report})
}

// ListReports handles GET /api/v1/reports (moderator only)
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	var status *string
	if v := r.URL.Query().Get("status"); v != "" {
		status = &v
	}

	reports, total, err := h.service.ListReports(r.Context(), status, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(reports, total, params.Page, params.PerPage))
}

// GetReport handles GET /api/v1/reports/{id} (moderator only)
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	report, err := h.service.GetReport(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// ResolveReport handles PUT /api/v1/reports/{id}/status (moderator only)
func (h *ReportHandler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ResolveReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	report, err := h.service.ResolveReport(r.Context(), id.String(), actorID, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// ListAuditLog handles GET /api/v1/audit-log (moderator only)
// Requires target_kind and target_id query parameters.
func (h *ReportHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := q.Get("target_kind")
	targetID := q.Get("target_id")
	if !domain.TargetKind(kind).IsValid() || targetID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "target_kind and target_id query parameters are required"},
		})
		return
	}

	params := pagination.FromRequest(r)

	entries, total, err := h.service.ListAuditLog(r.Context(), kind, targetID, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(entries, total, params.Page, params.PerPage))
}
