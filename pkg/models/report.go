package models

import (
	"fmt"
	"time"
)

// RatingBreakdown aggregates member ratings for one topic cluster.
// None counts events that were never rated.
type RatingBreakdown struct {
	Good int `json:"good"`
	Bad  int `json:"bad"`
	None int `json:"none"`
}

// TopicCluster is the per-topic detail stored in a report, keyed by its
// synthesized label in TopicReport.Clusters.
type TopicCluster struct {
	Count         int             `json:"count"`
	SampleQueries []string        `json:"sample_queries"`
	Ratings       RatingBreakdown `json:"ratings"`
}

// TopicReport is the persisted analytics report for one course. Exactly one
// live report exists per course; each build overwrites the previous one
// wholesale. A report with TotalQueries == 0 is a valid outcome for a course
// with no logged chat queries and is distinct from "no report generated yet".
type TopicReport struct {
	CourseID     string                  `json:"course_id"`
	TotalQueries int                     `json:"total_queries"`
	NumClusters  int                     `json:"num_clusters"`
	GeneratedAt  time.Time               `json:"generated_at"`
	AutoDetected bool                    `json:"auto_detected"`
	Clusters     map[string]TopicCluster `json:"clusters"`
}

// Validate checks a report loaded from the store. Documents written by this
// engine always pass; hand-edited or truncated documents are rejected at the
// read boundary.
func (r *TopicReport) Validate() error {
	if r.CourseID == "" {
		return fmt.Errorf("report missing course_id")
	}
	if r.Clusters == nil {
		return fmt.Errorf("report missing clusters map")
	}
	if r.NumClusters != len(r.Clusters) {
		return fmt.Errorf("report num_clusters %d does not match %d clusters", r.NumClusters, len(r.Clusters))
	}

	total := 0
	for label, cluster := range r.Clusters {
		if label == "" {
			return fmt.Errorf("report contains cluster with empty label")
		}
		if cluster.Count < 1 {
			return fmt.Errorf("cluster %q has non-positive count %d", label, cluster.Count)
		}
		total += cluster.Count
	}
	if total != r.TotalQueries {
		return fmt.Errorf("cluster counts sum to %d but total_queries is %d", total, r.TotalQueries)
	}

	return nil
}
