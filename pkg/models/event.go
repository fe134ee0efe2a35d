package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/classlens/insights-engine/pkg/apperrors"
)

// EventType identifies the kind of logged interaction.
type EventType string

const (
	// EventTypeChat is a logged chat query with its embedding.
	EventTypeChat EventType = "chat"
	// EventTypeGraphClick is a knowledge-graph node click.
	EventTypeGraphClick EventType = "kg_click"
)

// Rating is a student's feedback on a chat answer.
type Rating string

const (
	RatingHelpful    Rating = "helpful"
	RatingNotHelpful Rating = "not_helpful"
)

// ParseRating validates a raw rating string.
func ParseRating(s string) (Rating, error) {
	switch Rating(s) {
	case RatingHelpful, RatingNotHelpful:
		return Rating(s), nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidRating, s)
	}
}

// LogEvent is one interaction record in the analytics event log.
// Records are append-only: the rating is the only field mutated after
// creation, and events are never deleted.
type LogEvent struct {
	ID       uuid.UUID `json:"id"`
	CourseID string    `json:"course_id"`
	Type     EventType `json:"type"`

	// Chat event fields
	QueryText   string    `json:"query_text,omitempty"`
	AnswerText  string    `json:"answer_text,omitempty"`
	Sources     []string  `json:"sources,omitempty"`
	QueryVector []float32 `json:"-"`
	Rating      *Rating   `json:"rating,omitempty"`

	// Graph click fields
	NodeID    string `json:"node_id,omitempty"`
	NodeLabel string `json:"node_label,omitempty"`
	NodeType  string `json:"node_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the event shape at the store boundary. Malformed events
// are rejected before they reach the database rather than surfacing as
// missing fields during aggregation.
func (e *LogEvent) Validate() error {
	if e.CourseID == "" {
		return fmt.Errorf("%w: course_id is required", apperrors.ErrInvalidEvent)
	}

	switch e.Type {
	case EventTypeChat:
		if e.QueryText == "" {
			return fmt.Errorf("%w: chat event requires query_text", apperrors.ErrInvalidEvent)
		}
	case EventTypeGraphClick:
		if e.NodeID == "" || e.NodeLabel == "" {
			return fmt.Errorf("%w: graph click event requires node_id and node_label", apperrors.ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown event type %q", apperrors.ErrInvalidEvent, e.Type)
	}

	if e.Rating != nil {
		if _, err := ParseRating(string(*e.Rating)); err != nil {
			return err
		}
	}

	return nil
}

// EventVector is the projection of a chat event used by the clustering
// pipeline: the id, its embedding, and the rating at fetch time. Fetching
// ratings alongside vectors avoids a second per-event lookup during
// aggregation.
type EventVector struct {
	ID     uuid.UUID
	Vector []float32
	Rating *Rating
}
