package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"market-insights/backend-go/internal/models"
)

const InsightsKey = "insights"

// InsightsService polls the insights stream through the Fetcher and folds each
// batch into the process Timeline.
type InsightsService struct {
	fetcher  *Fetcher
	timeline *Timeline
	log      *zap.Logger
}

func NewInsightsService(fetcher *Fetcher, timeline *Timeline, log *zap.Logger) *InsightsService {
	return &InsightsService{fetcher: fetcher, timeline: timeline, log: log}
}

// Refresh returns the accumulated history after merging the latest batch. On
// error the history is returned unchanged together with the error.
func (s *InsightsService) Refresh(ctx context.Context) (models.InsightsResponse, error) {
	res, err := s.fetcher.Fetch(ctx, InsightsKey)
	if err != nil {
		return s.current(), err
	}
	var batch models.InsightsResponse
	if err := json.Unmarshal(res.Body, &batch); err != nil {
		return s.current(), fmt.Errorf("decode insights: %w", err)
	}
	items := s.timeline.Merge(batch.Items)
	s.log.Debug("insights merged",
		zap.Int("batch", len(batch.Items)),
		zap.Int("days", len(items)),
		zap.Bool("cached", res.Cached),
	)
	return models.InsightsResponse{Count: len(items), Items: items}, nil
}

func (s *InsightsService) Days() int {
	return s.timeline.Len()
}

func (s *InsightsService) current() models.InsightsResponse {
	items := s.timeline.Snapshot()
	return models.InsightsResponse{Count: len(items), Items: items}
}
