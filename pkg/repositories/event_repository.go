package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/classlens/insights-engine/pkg/apperrors"
	"github.com/classlens/insights-engine/pkg/database"
	"github.com/classlens/insights-engine/pkg/models"
)

// eventIDBatchSize bounds the id-set membership predicate of a single query.
// Larger id sets are fetched in batches of this size.
const eventIDBatchSize = 200

// EventRepository provides data access for the analytics event log.
type EventRepository interface {
	// Append writes one event with a newly assigned id, set on the event.
	Append(ctx context.Context, event *models.LogEvent) error

	// ListVectors returns id, embedding and current rating for every event
	// of the given type in the course that carries an embedding. Returns an
	// empty slice, not an error, when no such events exist.
	ListVectors(ctx context.Context, courseID string, eventType models.EventType) ([]models.EventVector, error)

	// FetchTextsByIDs returns the query texts for the given event ids,
	// issuing batched id-set queries. Order follows the store, not the input.
	FetchTextsByIDs(ctx context.Context, ids []uuid.UUID) ([]string, error)

	// SetRating updates the rating of one event. Returns
	// apperrors.ErrNotFound if the id does not exist.
	SetRating(ctx context.Context, id uuid.UUID, rating models.Rating) error

	// ClearRating removes the rating of one event. Returns
	// apperrors.ErrNotFound if the id does not exist.
	ClearRating(ctx context.Context, id uuid.UUID) error
}

type eventRepository struct {
	db *database.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *database.DB) EventRepository {
	return &eventRepository{db: db}
}

var _ EventRepository = (*eventRepository)(nil)

func (r *eventRepository) Append(ctx context.Context, event *models.LogEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.Sources == nil {
		event.Sources = []string{}
	}

	var vector any
	if len(event.QueryVector) > 0 {
		vector = pgvector.NewVector(event.QueryVector)
	}

	query := `
		INSERT INTO analytics_events (
			id, course_id, type, query_text, answer_text, sources,
			query_vector, node_id, node_label, node_type, rating, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		event.ID, event.CourseID, event.Type, event.QueryText, event.AnswerText,
		event.Sources, vector, event.NodeID, event.NodeLabel, event.NodeType,
		event.Rating, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: append event: %v", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *eventRepository) ListVectors(ctx context.Context, courseID string, eventType models.EventType) ([]models.EventVector, error) {
	query := `
		SELECT id, query_vector, rating
		FROM analytics_events
		WHERE course_id = $1 AND type = $2 AND query_vector IS NOT NULL
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, courseID, eventType)
	if err != nil {
		return nil, fmt.Errorf("%w: list vectors for course %s: %v", apperrors.ErrStoreUnavailable, courseID, err)
	}
	defer rows.Close()

	vectors := make([]models.EventVector, 0)
	for rows.Next() {
		var (
			ev     models.EventVector
			vec    pgvector.Vector
			rating *string
		)
		if err := rows.Scan(&ev.ID, &vec, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan event vector: %w", err)
		}
		ev.Vector = vec.Slice()
		if rating != nil {
			parsed, err := models.ParseRating(*rating)
			if err != nil {
				return nil, fmt.Errorf("event %s: %w", ev.ID, err)
			}
			ev.Rating = &parsed
		}
		vectors = append(vectors, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating event vectors: %v", apperrors.ErrStoreUnavailable, err)
	}

	return vectors, nil
}

func (r *eventRepository) FetchTextsByIDs(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	texts := make([]string, 0, len(ids))
	for start := 0; start < len(ids); start += eventIDBatchSize {
		end := min(start+eventIDBatchSize, len(ids))

		rows, err := r.db.Query(ctx,
			`SELECT query_text FROM analytics_events WHERE id = ANY($1) AND query_text <> ''`,
			ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: fetch texts by ids: %v", apperrors.ErrStoreUnavailable, err)
		}

		for rows.Next() {
			var text string
			if err := rows.Scan(&text); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan query text: %w", err)
			}
			texts = append(texts, text)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: iterating query texts: %v", apperrors.ErrStoreUnavailable, err)
		}
		rows.Close()
	}

	return texts, nil
}

func (r *eventRepository) SetRating(ctx context.Context, id uuid.UUID, rating models.Rating) error {
	if _, err := models.ParseRating(string(rating)); err != nil {
		return err
	}
	return r.updateRating(ctx, id, &rating)
}

func (r *eventRepository) ClearRating(ctx context.Context, id uuid.UUID) error {
	return r.updateRating(ctx, id, nil)
}

func (r *eventRepository) updateRating(ctx context.Context, id uuid.UUID, rating *models.Rating) error {
	tag, err := r.db.Exec(ctx, `UPDATE analytics_events SET rating = $2 WHERE id = $1`, id, rating)
	if err != nil {
		return fmt.Errorf("%w: update rating: %v", apperrors.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: event %s", apperrors.ErrNotFound, id)
	}
	return nil
}
