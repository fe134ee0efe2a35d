package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classlens/insights-engine/pkg/models"
	"github.com/classlens/insights-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// LogChatQueryRequest for POST /api/courses/{course_id}/events/chat
type LogChatQueryRequest struct {
	QueryText  string   `json:"query_text"`
	AnswerText string   `json:"answer_text,omitempty"`
	Sources    []string `json:"sources,omitempty"`
}

// LogGraphClickRequest for POST /api/courses/{course_id}/events/graph-click
type LogGraphClickRequest struct {
	NodeID    string `json:"node_id"`
	NodeLabel string `json:"node_label"`
	NodeType  string `json:"node_type,omitempty"`
}

// RateEventRequest for PUT /api/events/{event_id}/rating.
// A null rating clears previously recorded feedback.
type RateEventRequest struct {
	Rating *string `json:"rating"`
}

// LogEventResponse returns the id of a newly logged event.
type LogEventResponse struct {
	EventID string `json:"event_id"`
}

// ============================================================================
// Handler
// ============================================================================

// AnalyticsHandler handles the analytics HTTP surface: report builds and
// reads for professors, event logging and rating feedback for students.
type AnalyticsHandler struct {
	analytics services.AnalyticsService
	events    services.EventLogService
	logger    *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(
	analytics services.AnalyticsService,
	events services.EventLogService,
	logger *zap.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		events:    events,
		logger:    logger,
	}
}

// RegisterRoutes registers the analytics handler's routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/courses/{course_id}/analytics/report", h.BuildReport)
	mux.HandleFunc("GET /api/courses/{course_id}/analytics/report", h.GetReport)
	mux.HandleFunc("POST /api/courses/{course_id}/events/chat", h.LogChatQuery)
	mux.HandleFunc("POST /api/courses/{course_id}/events/graph-click", h.LogGraphClick)
	mux.HandleFunc("PUT /api/events/{event_id}/rating", h.RateEvent)
}

// BuildReport handles POST /api/courses/{course_id}/analytics/report.
// Runs the full aggregation pipeline and returns the freshly built report.
func (h *AnalyticsHandler) BuildReport(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("course_id")

	report, err := h.analytics.BuildReport(r.Context(), courseID)
	if err != nil {
		h.logger.Error("report build failed",
			zap.String("course_id", courseID),
			zap.Error(err))
		writeServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to encode report response", zap.Error(err))
	}
}

// GetReport handles GET /api/courses/{course_id}/analytics/report.
// A 404 means no report has been generated yet; an empty report
// (total_queries == 0) is returned with 200.
func (h *AnalyticsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("course_id")

	report, err := h.analytics.GetReport(r.Context(), courseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to encode report response", zap.Error(err))
	}
}

// LogChatQuery handles POST /api/courses/{course_id}/events/chat.
func (h *AnalyticsHandler) LogChatQuery(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("course_id")

	var req LogChatQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	eventID, err := h.events.LogChatQuery(r.Context(), courseID, req.QueryText, req.AnswerText, req.Sources)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, LogEventResponse{EventID: eventID.String()}); err != nil {
		h.logger.Error("Failed to encode log response", zap.Error(err))
	}
}

// LogGraphClick handles POST /api/courses/{course_id}/events/graph-click.
func (h *AnalyticsHandler) LogGraphClick(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("course_id")

	var req LogGraphClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	eventID, err := h.events.LogGraphClick(r.Context(), courseID, req.NodeID, req.NodeLabel, req.NodeType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, LogEventResponse{EventID: eventID.String()}); err != nil {
		h.logger.Error("Failed to encode log response", zap.Error(err))
	}
}

// RateEvent handles PUT /api/events/{event_id}/rating.
func (h *AnalyticsHandler) RateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(r.PathValue("event_id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid event id")
		return
	}

	var req RateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var rating *models.Rating
	if req.Rating != nil {
		parsed, err := models.ParseRating(*req.Rating)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		rating = &parsed
	}

	if err := h.events.RecordRating(r.Context(), eventID, rating); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
