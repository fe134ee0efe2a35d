package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/classlens/insights-engine/pkg/apperrors"
	"github.com/classlens/insights-engine/pkg/database"
	"github.com/classlens/insights-engine/pkg/models"
)

// ReportRepository provides data access for persisted topic reports.
// One document per course; Put is a full overwrite with no merge semantics.
type ReportRepository interface {
	// Put stores the report for its course, replacing any previous report
	// in a single atomic write.
	Put(ctx context.Context, report *models.TopicReport) error

	// Get returns the current report for a course, or
	// apperrors.ErrNotFound when no report has been generated yet.
	Get(ctx context.Context, courseID string) (*models.TopicReport, error)
}

type reportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *database.DB) ReportRepository {
	return &reportRepository{db: db}
}

var _ ReportRepository = (*reportRepository)(nil)

func (r *reportRepository) Put(ctx context.Context, report *models.TopicReport) error {
	if report.CourseID == "" {
		return fmt.Errorf("%w: report missing course_id", apperrors.ErrReportPersist)
	}

	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("%w: marshal report: %v", apperrors.ErrReportPersist, err)
	}

	query := `
		INSERT INTO analytics_reports (course_id, report, generated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (course_id)
		DO UPDATE SET
			report = EXCLUDED.report,
			generated_at = EXCLUDED.generated_at`

	if _, err := r.db.Exec(ctx, query, report.CourseID, doc, report.GeneratedAt); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrReportPersist, err)
	}

	return nil
}

func (r *reportRepository) Get(ctx context.Context, courseID string) (*models.TopicReport, error) {
	var doc []byte
	err := r.db.QueryRow(ctx,
		`SELECT report FROM analytics_reports WHERE course_id = $1`, courseID,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no report for course %s", apperrors.ErrNotFound, courseID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get report: %v", apperrors.ErrStoreUnavailable, err)
	}

	var report models.TopicReport
	if err := json.Unmarshal(doc, &report); err != nil {
		return nil, fmt.Errorf("malformed report document for course %s: %w", courseID, err)
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("malformed report document for course %s: %w", courseID, err)
	}

	return &report, nil
}
