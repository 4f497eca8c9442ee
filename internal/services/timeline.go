package services

import (
	"sort"
	"strings"
	"sync"

	"market-insights/backend-go/internal/models"
)

// Timeline is the accumulated insights history: at most one record per
// calendar day, newest first. Datetimes must share one fixed-width ISO-8601
// layout since they are ordered as strings.
type Timeline struct {
	mu      sync.Mutex
	maxDays int
	items   []models.TimelineRecord
}

// NewTimeline keeps the newest maxDays days; zero keeps everything.
func NewTimeline(maxDays int) *Timeline {
	return &Timeline{maxDays: maxDays}
}

// Merge folds batch into the history and returns the whole history. On a
// shared day the larger datetime wins; on equal datetimes the batch wins.
func (t *Timeline) Merge(batch []models.TimelineRecord) []models.TimelineRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case len(batch) == 0:
	case len(t.items) == 0:
		t.items = normalize(append([]models.TimelineRecord(nil), batch...), t.maxDays)
	default:
		combined := make([]models.TimelineRecord, 0, len(batch)+len(t.items))
		combined = append(combined, batch...)
		combined = append(combined, t.items...)
		t.items = normalize(combined, t.maxDays)
	}
	return t.snapshotLocked()
}

func (t *Timeline) Snapshot() []models.TimelineRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

func (t *Timeline) snapshotLocked() []models.TimelineRecord {
	out := make([]models.TimelineRecord, len(t.items))
	copy(out, t.items)
	return out
}

func normalize(records []models.TimelineRecord, maxDays int) []models.TimelineRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Datetime > records[j].Datetime
	})
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		key := DateKey(r.Datetime)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	if maxDays > 0 && len(out) > maxDays {
		out = out[:maxDays]
	}
	return out
}

// DateKey is the calendar-date part of an ISO-8601 datetime.
func DateKey(datetime string) string {
	if i := strings.IndexAny(datetime, "T "); i >= 0 {
		return datetime[:i]
	}
	return datetime
}
