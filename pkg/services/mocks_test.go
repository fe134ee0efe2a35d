package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/classlens/insights-engine/pkg/models"
	"github.com/classlens/insights-engine/pkg/repositories"
)

// mockEventRepo is a function-field mock of repositories.EventRepository.
type mockEventRepo struct {
	appendFunc      func(ctx context.Context, event *models.LogEvent) error
	listVectorsFunc func(ctx context.Context, courseID string, eventType models.EventType) ([]models.EventVector, error)
	fetchTextsFunc  func(ctx context.Context, ids []uuid.UUID) ([]string, error)
	setRatingFunc   func(ctx context.Context, id uuid.UUID, rating models.Rating) error
	clearRatingFunc func(ctx context.Context, id uuid.UUID) error

	mu               sync.Mutex
	appendedEvents   []*models.LogEvent
	fetchTextsCalls  int
	setRatingCalls   int
	clearRatingCalls int
}

var _ repositories.EventRepository = (*mockEventRepo)(nil)

func (m *mockEventRepo) Append(ctx context.Context, event *models.LogEvent) error {
	m.mu.Lock()
	m.appendedEvents = append(m.appendedEvents, event)
	m.mu.Unlock()
	if m.appendFunc != nil {
		return m.appendFunc(ctx, event)
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return nil
}

func (m *mockEventRepo) ListVectors(ctx context.Context, courseID string, eventType models.EventType) ([]models.EventVector, error) {
	if m.listVectorsFunc != nil {
		return m.listVectorsFunc(ctx, courseID, eventType)
	}
	return []models.EventVector{}, nil
}

func (m *mockEventRepo) FetchTextsByIDs(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	m.mu.Lock()
	m.fetchTextsCalls++
	m.mu.Unlock()
	if m.fetchTextsFunc != nil {
		return m.fetchTextsFunc(ctx, ids)
	}
	return []string{}, nil
}

func (m *mockEventRepo) SetRating(ctx context.Context, id uuid.UUID, rating models.Rating) error {
	m.mu.Lock()
	m.setRatingCalls++
	m.mu.Unlock()
	if m.setRatingFunc != nil {
		return m.setRatingFunc(ctx, id, rating)
	}
	return nil
}

func (m *mockEventRepo) ClearRating(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.clearRatingCalls++
	m.mu.Unlock()
	if m.clearRatingFunc != nil {
		return m.clearRatingFunc(ctx, id)
	}
	return nil
}

// mockReportRepo is a function-field mock of repositories.ReportRepository.
type mockReportRepo struct {
	putFunc func(ctx context.Context, report *models.TopicReport) error
	getFunc func(ctx context.Context, courseID string) (*models.TopicReport, error)

	mu   sync.Mutex
	puts []*models.TopicReport
}

var _ repositories.ReportRepository = (*mockReportRepo)(nil)

func (m *mockReportRepo) Put(ctx context.Context, report *models.TopicReport) error {
	m.mu.Lock()
	m.puts = append(m.puts, report)
	m.mu.Unlock()
	if m.putFunc != nil {
		return m.putFunc(ctx, report)
	}
	return nil
}

func (m *mockReportRepo) Get(ctx context.Context, courseID string) (*models.TopicReport, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, courseID)
	}
	return nil, nil
}

func (m *mockReportRepo) lastPut() *models.TopicReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.puts) == 0 {
		return nil
	}
	return m.puts[len(m.puts)-1]
}

// stubLabeler is a function-field stub of ClusterLabeler.
type stubLabeler struct {
	labelFunc func(ctx context.Context, texts []string) (string, error)

	mu    sync.Mutex
	calls int
}

var _ ClusterLabeler = (*stubLabeler)(nil)

func (s *stubLabeler) Label(ctx context.Context, texts []string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.labelFunc != nil {
		return s.labelFunc(ctx, texts)
	}
	return "Stub Topic", nil
}
