package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classlens/insights-engine/pkg/clustering"
	"github.com/classlens/insights-engine/pkg/config"
	"github.com/classlens/insights-engine/pkg/llm"
	"github.com/classlens/insights-engine/pkg/models"
	"github.com/classlens/insights-engine/pkg/repositories"
	"github.com/classlens/insights-engine/pkg/retry"
)

// AnalyticsService builds and serves per-course topic reports.
type AnalyticsService interface {
	// BuildReport runs the full aggregation pipeline for a course and
	// persists the resulting report, overwriting any previous one.
	//
	// A course with no embedded chat queries yields a valid empty report.
	// Store failures abort the build without persisting anything; a label
	// synthesis failure degrades that one cluster to a fallback name.
	//
	// Concurrent builds for the same course are not coordinated here: the
	// report store is last-writer-wins and each write is a single atomic
	// overwrite, so readers never observe a partial report. Callers that
	// expose build triggers to users should serialize per course.
	BuildReport(ctx context.Context, courseID string) (*models.TopicReport, error)

	// GetReport returns the current report for a course, or
	// apperrors.ErrNotFound when none has been generated yet.
	GetReport(ctx context.Context, courseID string) (*models.TopicReport, error)
}

type analyticsService struct {
	events  repositories.EventRepository
	reports repositories.ReportRepository
	labeler ClusterLabeler
	pool    *llm.WorkerPool
	cfg     config.AnalyticsConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(
	events repositories.EventRepository,
	reports repositories.ReportRepository,
	labeler ClusterLabeler,
	pool *llm.WorkerPool,
	cfg config.AnalyticsConfig,
	logger *zap.Logger,
) AnalyticsService {
	return &analyticsService{
		events:  events,
		reports: reports,
		labeler: labeler,
		pool:    pool,
		cfg:     cfg,
		logger:  logger.Named("analytics"),
		now:     time.Now,
	}
}

var _ AnalyticsService = (*analyticsService)(nil)

// clusterGroup carries one cluster's member ids and rating aggregate between
// pipeline stages. Holding the ids explicitly (rather than reusing slice
// positions) keeps cluster identity stable after empty clusters are dropped.
type clusterGroup struct {
	index     int
	memberIDs []uuid.UUID
	ratings   models.RatingBreakdown
}

// labeledCluster is the per-cluster output of the labeling stage.
type labeledCluster struct {
	index   int
	label   string
	cluster models.TopicCluster
}

func (s *analyticsService) BuildReport(ctx context.Context, courseID string) (*models.TopicReport, error) {
	if courseID == "" {
		return nil, fmt.Errorf("course id is required")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout())
	vectors, err := s.events.ListVectors(fetchCtx, courseID, models.EventTypeChat)
	cancel()
	if err != nil {
		return nil, err
	}

	// No embedded chat queries is a normal outcome, not an error: persist
	// an empty report so the dashboard can tell "nothing asked yet" apart
	// from "never generated".
	if len(vectors) == 0 {
		report := &models.TopicReport{
			CourseID:     courseID,
			TotalQueries: 0,
			NumClusters:  0,
			GeneratedAt:  s.now().UTC(),
			AutoDetected: true,
			Clusters:     map[string]models.TopicCluster{},
		}
		if err := s.persist(ctx, report); err != nil {
			return nil, err
		}
		s.logger.Info("generated empty analytics report", zap.String("course_id", courseID))
		return report, nil
	}

	k := s.cfg.ClusterCount
	if k > len(vectors) {
		k = len(vectors)
	}

	mat := make([][]float32, len(vectors))
	for i, v := range vectors {
		mat[i] = v.Vector
	}

	clusters, err := clustering.Partition(mat, k, clustering.Config{})
	if err != nil {
		return nil, fmt.Errorf("cluster query vectors: %w", err)
	}

	groups := make([]clusterGroup, len(clusters))
	for i, c := range clusters {
		g := clusterGroup{index: c.Index}
		for _, pos := range c.Members {
			ev := vectors[pos]
			g.memberIDs = append(g.memberIDs, ev.ID)
			switch {
			case ev.Rating == nil:
				g.ratings.None++
			case *ev.Rating == models.RatingHelpful:
				g.ratings.Good++
			default:
				g.ratings.Bad++
			}
		}
		groups[i] = g
	}

	labeled, err := s.labelClusters(ctx, groups)
	if err != nil {
		return nil, err
	}

	report := &models.TopicReport{
		CourseID:     courseID,
		TotalQueries: len(vectors),
		NumClusters:  len(labeled),
		GeneratedAt:  s.now().UTC(),
		AutoDetected: true,
		Clusters:     make(map[string]models.TopicCluster, len(labeled)),
	}

	// Insert in cluster order so duplicate labels get deterministic
	// suffixes instead of silently overwriting one another.
	sort.Slice(labeled, func(i, j int) bool { return labeled[i].index < labeled[j].index })
	for _, lc := range labeled {
		label := lc.label
		for n := 2; ; n++ {
			if _, taken := report.Clusters[label]; !taken {
				break
			}
			label = fmt.Sprintf("%s (%d)", lc.label, n)
		}
		report.Clusters[label] = lc.cluster
	}

	if err := s.persist(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info("generated analytics report",
		zap.String("course_id", courseID),
		zap.Int("total_queries", report.TotalQueries),
		zap.Int("num_clusters", report.NumClusters))

	return report, nil
}

// labelClusters fetches member texts and synthesizes a label for every
// cluster, with bounded parallelism. Clusters share no mutable state, so the
// per-cluster work runs concurrently and joins before report assembly. A
// store failure fails the build; a labeler failure degrades to a fallback
// name for that cluster only.
func (s *analyticsService) labelClusters(ctx context.Context, groups []clusterGroup) ([]labeledCluster, error) {
	fetchLimit := s.cfg.MaxLabelTexts
	if s.cfg.SampleQueries > fetchLimit {
		fetchLimit = s.cfg.SampleQueries
	}

	items := make([]llm.WorkItem[labeledCluster], len(groups))
	for i, g := range groups {
		g := g
		items[i] = llm.WorkItem[labeledCluster]{
			ID: strconv.Itoa(g.index),
			Execute: func(ctx context.Context) (labeledCluster, error) {
				ids := g.memberIDs
				if len(ids) > fetchLimit {
					ids = ids[:fetchLimit]
				}

				storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout())
				texts, err := s.events.FetchTextsByIDs(storeCtx, ids)
				cancel()
				if err != nil {
					return labeledCluster{}, err
				}

				label, err := s.labeler.Label(ctx, texts)
				if err != nil {
					s.logger.Warn("label synthesis failed, using fallback",
						zap.Int("cluster", g.index),
						zap.Error(err))
					label = FallbackLabel(g.index)
				}

				samples := texts
				if len(samples) > s.cfg.SampleQueries {
					samples = samples[:s.cfg.SampleQueries]
				}

				return labeledCluster{
					index: g.index,
					label: label,
					cluster: models.TopicCluster{
						Count:         len(g.memberIDs),
						SampleQueries: samples,
						Ratings:       g.ratings,
					},
				}, nil
			},
		}
	}

	results := llm.Process(ctx, s.pool, items)

	labeled := make([]labeledCluster, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("aggregate cluster %s: %w", res.ID, res.Err)
		}
		labeled = append(labeled, res.Result)
	}
	return labeled, nil
}

// persist writes the assembled report as a single atomic overwrite,
// retrying transient store failures within the store timeout.
func (s *analyticsService) persist(ctx context.Context, report *models.TopicReport) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout())
	defer cancel()

	return retry.Do(storeCtx, &retry.Config{
		MaxRetries:   2,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}, func() error {
		return s.reports.Put(storeCtx, report)
	})
}

func (s *analyticsService) GetReport(ctx context.Context, courseID string) (*models.TopicReport, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout())
	defer cancel()
	return s.reports.Get(storeCtx, courseID)
}
