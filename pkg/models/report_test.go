package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validReport() *TopicReport {
	return &TopicReport{
		CourseID:     "cs101",
		TotalQueries: 5,
		NumClusters:  2,
		GeneratedAt:  time.Now().UTC(),
		AutoDetected: true,
		Clusters: map[string]TopicCluster{
			"Recursion Basics": {Count: 3, SampleQueries: []string{"q1", "q2"}, Ratings: RatingBreakdown{Good: 1, None: 2}},
			"Big-O Notation":   {Count: 2, SampleQueries: []string{"q3"}, Ratings: RatingBreakdown{Bad: 1, None: 1}},
		},
	}
}

func TestTopicReport_Validate(t *testing.T) {
	t.Run("valid report", func(t *testing.T) {
		assert.NoError(t, validReport().Validate())
	})

	t.Run("valid empty report", func(t *testing.T) {
		r := &TopicReport{
			CourseID:     "cs101",
			TotalQueries: 0,
			NumClusters:  0,
			GeneratedAt:  time.Now().UTC(),
			AutoDetected: true,
			Clusters:     map[string]TopicCluster{},
		}
		assert.NoError(t, r.Validate())
	})

	t.Run("missing course id", func(t *testing.T) {
		r := validReport()
		r.CourseID = ""
		assert.Error(t, r.Validate())
	})

	t.Run("nil clusters map", func(t *testing.T) {
		r := validReport()
		r.Clusters = nil
		assert.Error(t, r.Validate())
	})

	t.Run("num_clusters mismatch", func(t *testing.T) {
		r := validReport()
		r.NumClusters = 3
		assert.Error(t, r.Validate())
	})

	t.Run("cluster counts do not sum to total", func(t *testing.T) {
		r := validReport()
		r.TotalQueries = 99
		assert.Error(t, r.Validate())
	})

	t.Run("empty label", func(t *testing.T) {
		r := validReport()
		r.Clusters[""] = TopicCluster{Count: 1}
		r.NumClusters = 3
		r.TotalQueries = 6
		assert.Error(t, r.Validate())
	})

	t.Run("non-positive cluster count", func(t *testing.T) {
		r := validReport()
		r.Clusters["Empty Topic"] = TopicCluster{Count: 0}
		r.NumClusters = 3
		assert.Error(t, r.Validate())
	})
}
