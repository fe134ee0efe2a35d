package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classlens/insights-engine/pkg/apperrors"
	"github.com/classlens/insights-engine/pkg/models"
	"github.com/classlens/insights-engine/pkg/testhelpers"
)

func chatEvent(courseID, query string, vector []float32) *models.LogEvent {
	return &models.LogEvent{
		CourseID:    courseID,
		Type:        models.EventTypeChat,
		QueryText:   query,
		AnswerText:  "an answer",
		Sources:     []string{"lecture-1"},
		QueryVector: vector,
	}
}

func TestEventRepository_AppendAssignsID(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEventRepository(tdb.DB)

	event := chatEvent("course-append", "what is a slice?", []float32{0.1, 0.2, 0.3})
	require.NoError(t, repo.Append(context.Background(), event))

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestEventRepository_AppendRejectsInvalidEvent(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewEventRepository(tdb.DB)

	err := repo.Append(context.Background(), &models.LogEvent{Type: models.EventTypeChat})
	assert.ErrorIs(t, err, apperrors.ErrInvalidEvent)
}

func TestEventRepository_ListVectors(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEventRepository(tdb.DB)
	ctx := context.Background()

	first := chatEvent("course-list", "first question", []float32{1, 0, 0})
	second := chatEvent("course-list", "second question", []float32{0, 1, 0})
	noVector := chatEvent("course-list", "unembedded question", nil)
	otherCourse := chatEvent("course-other", "elsewhere", []float32{0, 0, 1})
	click := &models.LogEvent{
		CourseID:  "course-list",
		Type:      models.EventTypeGraphClick,
		NodeID:    "n1",
		NodeLabel: "Slices",
	}

	for _, ev := range []*models.LogEvent{first, second, noVector, otherCourse, click} {
		require.NoError(t, repo.Append(ctx, ev))
	}

	vectors, err := repo.ListVectors(ctx, "course-list", models.EventTypeChat)
	require.NoError(t, err)

	// Only embedded chat events for the requested course, in insertion order.
	require.Len(t, vectors, 2)
	assert.Equal(t, first.ID, vectors[0].ID)
	assert.Equal(t, second.ID, vectors[1].ID)
	assert.Equal(t, []float32{1, 0, 0}, vectors[0].Vector)
	assert.Nil(t, vectors[0].Rating)
}

func TestEventRepository_ListVectorsEmptyCourse(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewEventRepository(tdb.DB)

	vectors, err := repo.ListVectors(context.Background(), "course-nonexistent", models.EventTypeChat)
	require.NoError(t, err, "an empty course is not an error")
	assert.Empty(t, vectors)
}

func TestEventRepository_ListVectorsIncludesRatings(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEventRepository(tdb.DB)
	ctx := context.Background()

	event := chatEvent("course-rated", "rate me", []float32{1, 2, 3})
	require.NoError(t, repo.Append(ctx, event))
	require.NoError(t, repo.SetRating(ctx, event.ID, models.RatingHelpful))

	vectors, err := repo.ListVectors(ctx, "course-rated", models.EventTypeChat)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.NotNil(t, vectors[0].Rating)
	assert.Equal(t, models.RatingHelpful, *vectors[0].Rating)
}

func TestEventRepository_FetchTextsByIDs(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEventRepository(tdb.DB)
	ctx := context.Background()

	var ids []uuid.UUID
	queries := []string{"q one", "q two", "q three"}
	for _, q := range queries {
		ev := chatEvent("course-texts", q, []float32{1})
		require.NoError(t, repo.Append(ctx, ev))
		ids = append(ids, ev.ID)
	}

	texts, err := repo.FetchTextsByIDs(ctx, ids)
	require.NoError(t, err)
	assert.ElementsMatch(t, queries, texts)

	subset, err := repo.FetchTextsByIDs(ctx, ids[:2])
	require.NoError(t, err)
	assert.Len(t, subset, 2)

	empty, err := repo.FetchTextsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	unknown, err := repo.FetchTextsByIDs(ctx, []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestEventRepository_RatingLifecycle(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEventRepository(tdb.DB)
	ctx := context.Background()

	event := chatEvent("course-rating", "question", []float32{1, 1})
	require.NoError(t, repo.Append(ctx, event))

	require.NoError(t, repo.SetRating(ctx, event.ID, models.RatingNotHelpful))

	vectors, err := repo.ListVectors(ctx, "course-rating", models.EventTypeChat)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.NotNil(t, vectors[0].Rating)
	assert.Equal(t, models.RatingNotHelpful, *vectors[0].Rating)

	// Re-rating overwrites.
	require.NoError(t, repo.SetRating(ctx, event.ID, models.RatingHelpful))
	vectors, err = repo.ListVectors(ctx, "course-rating", models.EventTypeChat)
	require.NoError(t, err)
	assert.Equal(t, models.RatingHelpful, *vectors[0].Rating)

	// Clearing removes the rating entirely.
	require.NoError(t, repo.ClearRating(ctx, event.ID))
	vectors, err = repo.ListVectors(ctx, "course-rating", models.EventTypeChat)
	require.NoError(t, err)
	assert.Nil(t, vectors[0].Rating)
}

func TestEventRepository_RatingUnknownID(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewEventRepository(tdb.DB)
	ctx := context.Background()

	err := repo.SetRating(ctx, uuid.New(), models.RatingHelpful)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = repo.ClearRating(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEventRepository_SetRatingRejectsInvalidValue(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewEventRepository(tdb.DB)

	err := repo.SetRating(context.Background(), uuid.New(), models.Rating("excellent"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidRating)
}
