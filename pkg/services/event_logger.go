package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classlens/insights-engine/pkg/llm"
	"github.com/classlens/insights-engine/pkg/models"
	"github.com/classlens/insights-engine/pkg/repositories"
)

// EventLogService records student interactions in the analytics event log
// and applies rating feedback to logged chat answers.
type EventLogService interface {
	// LogChatQuery appends a chat event with its query embedding and
	// returns the new event id. An embedding failure is non-fatal: the
	// event is stored without a vector and simply never participates in
	// clustering.
	LogChatQuery(ctx context.Context, courseID, queryText, answerText string, sources []string) (uuid.UUID, error)

	// LogGraphClick appends a knowledge-graph click event.
	LogGraphClick(ctx context.Context, courseID, nodeID, nodeLabel, nodeType string) (uuid.UUID, error)

	// RecordRating sets (or, with nil, clears) the rating of a logged
	// event. Returns apperrors.ErrNotFound for an unknown id.
	RecordRating(ctx context.Context, eventID uuid.UUID, rating *models.Rating) error
}

type eventLogService struct {
	events   repositories.EventRepository
	embedder llm.LLMClient // nil disables embedding
	logger   *zap.Logger
}

// NewEventLogService creates a new EventLogService. Pass a nil embedder to
// log chat queries without embeddings (they are then excluded from
// clustering until re-embedded).
func NewEventLogService(events repositories.EventRepository, embedder llm.LLMClient, logger *zap.Logger) EventLogService {
	return &eventLogService{
		events:   events,
		embedder: embedder,
		logger:   logger.Named("event-log"),
	}
}

var _ EventLogService = (*eventLogService)(nil)

func (s *eventLogService) LogChatQuery(ctx context.Context, courseID, queryText, answerText string, sources []string) (uuid.UUID, error) {
	event := &models.LogEvent{
		CourseID:   courseID,
		Type:       models.EventTypeChat,
		QueryText:  queryText,
		AnswerText: answerText,
		Sources:    sources,
	}

	if s.embedder != nil {
		vector, err := s.embedder.CreateEmbedding(ctx, queryText)
		if err != nil {
			s.logger.Warn("failed to embed chat query, logging without vector",
				zap.String("course_id", courseID),
				zap.Error(err))
		} else {
			event.QueryVector = vector
		}
	}

	if err := s.events.Append(ctx, event); err != nil {
		return uuid.Nil, fmt.Errorf("log chat query: %w", err)
	}

	s.logger.Debug("logged chat query",
		zap.String("course_id", courseID),
		zap.String("event_id", event.ID.String()),
		zap.Bool("embedded", len(event.QueryVector) > 0))

	return event.ID, nil
}

func (s *eventLogService) LogGraphClick(ctx context.Context, courseID, nodeID, nodeLabel, nodeType string) (uuid.UUID, error) {
	event := &models.LogEvent{
		CourseID:  courseID,
		Type:      models.EventTypeGraphClick,
		NodeID:    nodeID,
		NodeLabel: nodeLabel,
		NodeType:  nodeType,
	}

	if err := s.events.Append(ctx, event); err != nil {
		return uuid.Nil, fmt.Errorf("log graph click: %w", err)
	}

	return event.ID, nil
}

func (s *eventLogService) RecordRating(ctx context.Context, eventID uuid.UUID, rating *models.Rating) error {
	if rating == nil {
		return s.events.ClearRating(ctx, eventID)
	}
	return s.events.SetRating(ctx, eventID, *rating)
}
