package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestInsightsRefreshAccumulatesAcrossPolls(t *testing.T) {
	origin := &fakeOrigin{body: `{"count":2,"items":[
		{"datetime":"2024-01-03T08:00","insights":[{"sentiment":"neutral","insight":"early"}]},
		{"datetime":"2024-01-03T09:00","insights":[{"sentiment":"positive","insight":"late"}]}]}`}
	svc := NewInsightsService(newTestFetcher(nil, origin), NewTimeline(0), zap.NewNop())

	first, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Count != 1 || first.Items[0].Insights[0].Insight != "late" {
		t.Fatalf("unexpected first response %+v", first)
	}

	origin.body = `{"count":1,"items":[{"datetime":"2024-01-04T07:00","insights":[]}]}`
	second, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Count != 2 || second.Items[0].Datetime != "2024-01-04T07:00" || second.Items[1].Datetime != "2024-01-03T09:00" {
		t.Fatalf("expected full history newest first, got %+v", second)
	}
	if svc.Days() != 2 {
		t.Fatalf("expected 2 days, got %d", svc.Days())
	}
}

func TestInsightsRefreshErrorKeepsHistory(t *testing.T) {
	origin := &fakeOrigin{body: `{"count":1,"items":[{"datetime":"2024-01-03T09:00","insights":[]}]}`}
	svc := NewInsightsService(newTestFetcher(nil, origin), NewTimeline(0), zap.NewNop())
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	origin.err = errors.New("connection refused")
	got, err := svc.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got.Count != 1 || got.Items[0].Datetime != "2024-01-03T09:00" {
		t.Fatalf("expected prior history, got %+v", got)
	}
}
