package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/models"
)

// ComputeMetrics derives streaks and word counts from the active entries.
// Dates that do not parse are left out of streaks but their words count.
func ComputeMetrics(entries []models.JournalEntry, today time.Time, savedCount int) models.MetricsSnapshot {
	snap := models.MetricsSnapshot{SavedWordsCount: savedCount}

	days := make(map[time.Time]bool)
	for _, e := range entries {
		if !e.Active() {
			continue
		}
		snap.WordsWritten += len(strings.Fields(e.Text))
		if d, err := time.Parse(models.DateKeyLayout, e.DateKey); err == nil {
			days[d] = true
		}
	}

	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	snap.LongestStreak = longestStreak(sorted)
	snap.CurrentStreak = currentStreak(days, dayOf(today))
	return snap
}

func longestStreak(sorted []time.Time) int {
	if len(sorted) < 2 {
		return len(sorted)
	}
	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Equal(sorted[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// currentStreak counts today as 1 when it has an entry and walks back from
// yesterday; without an entry today it counts the run ending yesterday.
func currentStreak(days map[time.Time]bool, today time.Time) int {
	count := 0
	if days[today] {
		count = 1
	}
	for d := today.AddDate(0, 0, -1); days[d]; d = d.AddDate(0, 0, -1) {
		count++
	}
	return count
}

// dayOf is the calendar day of t in its own location, as a UTC midnight so it
// compares with parsed date keys.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MetricsService assembles a snapshot from the entry and phrase stores.
type MetricsService struct {
	entries *EntryStore
	phrases *PhraseStore
	log     *logger.Logger
}

func NewMetricsService(entries *EntryStore, phrases *PhraseStore, log *logger.Logger) *MetricsService {
	return &MetricsService{entries: entries, phrases: phrases, log: log.With("service", "MetricsService")}
}

// Snapshot loads entries and the saved-phrase count concurrently. A failing
// phrase count degrades to zero.
func (s *MetricsService) Snapshot(ctx context.Context, id Identity, today time.Time) (models.MetricsSnapshot, error) {
	var (
		entries []models.JournalEntry
		saved   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.entries.ListAll(gctx, id)
		return err
	})
	g.Go(func() error {
		n, err := s.phrases.Count(gctx, id)
		switch {
		case errors.Is(err, ErrUnauthenticated):
		case err != nil:
			s.log.Warn("saved phrase count unavailable", "user_id", id.UserID, "error", err)
		default:
			saved = n
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.MetricsSnapshot{}, err
	}
	return ComputeMetrics(entries, today, saved), nil
}
