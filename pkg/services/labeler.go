package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/classlens/insights-engine/pkg/config"
	"github.com/classlens/insights-engine/pkg/llm"
)

// ClusterLabeler synthesizes a short human-readable topic name from the
// query texts of one cluster.
type ClusterLabeler interface {
	Label(ctx context.Context, texts []string) (string, error)
}

const labelSystemMessage = "You name question topics for a course analytics dashboard. Respond with the label only, no explanation."

type llmClusterLabeler struct {
	client   llm.LLMClient
	maxTexts int
	timeout  time.Duration
	logger   *zap.Logger
}

// NewClusterLabeler creates a labeler backed by the configured LLM client.
func NewClusterLabeler(client llm.LLMClient, cfg *config.AnalyticsConfig, logger *zap.Logger) ClusterLabeler {
	return &llmClusterLabeler{
		client:   client,
		maxTexts: cfg.MaxLabelTexts,
		timeout:  cfg.LabelTimeout(),
		logger:   logger.Named("labeler"),
	}
}

var _ ClusterLabeler = (*llmClusterLabeler)(nil)

// Label builds a bounded, deterministic prompt from a sample of the cluster's
// queries and asks the label model for a 2-4 word topic name. The call is
// bounded by the configured timeout; timeouts and empty responses surface as
// errors so the report builder can fall back per cluster.
func (l *llmClusterLabeler) Label(ctx context.Context, texts []string) (string, error) {
	if len(texts) == 0 {
		return "", fmt.Errorf("no query texts to label")
	}

	sample := texts
	if len(sample) > l.maxTexts {
		sample = sample[:l.maxTexts]
	}

	var b strings.Builder
	b.WriteString("Given these student questions from a course:\n")
	for _, q := range sample {
		fmt.Fprintf(&b, "- %s\n", q)
	}
	b.WriteString("\nGenerate a short category label (2-4 words) that describes the common theme or topic. ")
	b.WriteString("Be specific and use technical terms when appropriate. ")
	b.WriteString("Only return the category label, nothing else.")

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	raw, err := l.client.GenerateResponse(ctx, b.String(), labelSystemMessage, 0.2)
	if err != nil {
		return "", fmt.Errorf("synthesize label: %w", err)
	}

	label := cleanLabel(raw)
	if label == "" {
		return "", fmt.Errorf("label model returned an empty label")
	}

	l.logger.Debug("synthesized cluster label",
		zap.String("label", label),
		zap.Int("texts", len(sample)))

	return label, nil
}

// cleanLabel strips the quoting and whitespace label models like to add.
func cleanLabel(raw string) string {
	label := strings.TrimSpace(raw)
	label = strings.Trim(label, "\"'")
	return strings.TrimSpace(label)
}

// FallbackLabel is the synthetic topic name used when label synthesis fails
// for a cluster. The report still includes the cluster under this name.
func FallbackLabel(clusterIndex int) string {
	return fmt.Sprintf("Topic %d", clusterIndex+1)
}
