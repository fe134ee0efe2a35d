package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classlens/insights-engine/pkg/apperrors"
	"github.com/classlens/insights-engine/pkg/models"
	"github.com/classlens/insights-engine/pkg/testhelpers"
)

func testReport(courseID string) *models.TopicReport {
	return &models.TopicReport{
		CourseID:     courseID,
		TotalQueries: 5,
		NumClusters:  2,
		GeneratedAt:  time.Now().UTC().Truncate(time.Microsecond),
		AutoDetected: true,
		Clusters: map[string]models.TopicCluster{
			"Recursion": {
				Count:         3,
				SampleQueries: []string{"what is recursion?", "base case?"},
				Ratings:       models.RatingBreakdown{Good: 2, None: 1},
			},
			"Pointers": {
				Count:         2,
				SampleQueries: []string{"pointer vs value?"},
				Ratings:       models.RatingBreakdown{Bad: 1, None: 1},
			},
		},
	}
}

func TestReportRepository_PutAndGet(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewReportRepository(tdb.DB)
	ctx := context.Background()

	want := testReport("course-roundtrip")
	require.NoError(t, repo.Put(ctx, want))

	got, err := repo.Get(ctx, "course-roundtrip")
	require.NoError(t, err)

	assert.Equal(t, want.CourseID, got.CourseID)
	assert.Equal(t, want.TotalQueries, got.TotalQueries)
	assert.Equal(t, want.NumClusters, got.NumClusters)
	assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, want.Clusters, got.Clusters)
}

func TestReportRepository_PutOverwrites(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewReportRepository(tdb.DB)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, testReport("course-overwrite")))

	updated := &models.TopicReport{
		CourseID:     "course-overwrite",
		TotalQueries: 1,
		NumClusters:  1,
		GeneratedAt:  time.Now().UTC(),
		AutoDetected: true,
		Clusters: map[string]models.TopicCluster{
			"New Topic": {Count: 1, SampleQueries: []string{"fresh question"}},
		},
	}
	require.NoError(t, repo.Put(ctx, updated))

	got, err := repo.Get(ctx, "course-overwrite")
	require.NoError(t, err)

	// The previous report is gone wholesale, not merged.
	assert.Equal(t, 1, got.TotalQueries)
	assert.Equal(t, 1, got.NumClusters)
	assert.Contains(t, got.Clusters, "New Topic")
	assert.NotContains(t, got.Clusters, "Recursion")
}

func TestReportRepository_EmptyReportRoundtrip(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewReportRepository(tdb.DB)
	ctx := context.Background()

	empty := &models.TopicReport{
		CourseID:     "course-empty",
		TotalQueries: 0,
		NumClusters:  0,
		GeneratedAt:  time.Now().UTC(),
		AutoDetected: true,
		Clusters:     map[string]models.TopicCluster{},
	}
	require.NoError(t, repo.Put(ctx, empty))

	got, err := repo.Get(ctx, "course-empty")
	require.NoError(t, err, "an empty report is retrievable, distinct from not-found")
	assert.Equal(t, 0, got.TotalQueries)
	assert.NotNil(t, got.Clusters)
	assert.Empty(t, got.Clusters)
}

func TestReportRepository_GetUnknownCourse(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewReportRepository(tdb.DB)

	_, err := repo.Get(context.Background(), "course-never-built")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReportRepository_PutRequiresCourseID(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewReportRepository(tdb.DB)

	err := repo.Put(context.Background(), &models.TopicReport{})
	assert.ErrorIs(t, err, apperrors.ErrReportPersist)
}

func TestReportRepository_RejectsMalformedDocument(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewReportRepository(tdb.DB)
	ctx := context.Background()

	// Write a structurally valid JSON document that fails report validation.
	_, err := tdb.DB.Exec(ctx,
		`INSERT INTO analytics_reports (course_id, report, generated_at) VALUES ($1, $2, now())`,
		"course-malformed",
		[]byte(`{"course_id":"course-malformed","total_queries":10,"num_clusters":5,"clusters":{}}`),
	)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "course-malformed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}
