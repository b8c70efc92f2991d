package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorlink/appointments/internal/model"
)

func TestSeries_Weekly(t *testing.T) {
	start := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	s := Series{Start: start, Pattern: model.RecurringWeekly, EndDate: start.AddDate(0, 0, 28)}

	all := s.All()
	require.Len(t, all, 5)
	for i, occ := range all {
		require.Equal(t, start.AddDate(0, 0, 7*i), occ)
	}
}

func TestSeries_BiWeekly(t *testing.T) {
	start := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	s := Series{Start: start, Pattern: model.RecurringBiWeekly, EndDate: start.AddDate(0, 0, 28)}

	all := s.All()
	require.Len(t, all, 3)
	require.Equal(t, start.AddDate(0, 0, 28), all[2])
}

func TestSeries_Monthly(t *testing.T) {
	start := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	s := Series{Start: start, Pattern: model.RecurringMonthly, EndDate: start.AddDate(0, 6, 0)}

	all := s.All()
	require.Len(t, all, 7)
	for i, occ := range all {
		require.Equal(t, start.AddDate(0, i, 0), occ)
	}
}

func TestSeries_EndDateInclusive(t *testing.T) {
	start := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	s := Series{Start: start, Pattern: model.RecurringWeekly, EndDate: start.AddDate(0, 0, 7)}

	require.Equal(t, 2, s.Count())
}

func TestSeries_EndBeforeStartIsEmpty(t *testing.T) {
	start := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	s := Series{Start: start, Pattern: model.RecurringWeekly, EndDate: start.Add(-time.Hour)}

	require.Zero(t, s.Count())
	require.Empty(t, s.All())
}

func TestSeries_IteratorRestartable(t *testing.T) {
	start := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	s := Series{Start: start, Pattern: model.RecurringWeekly, EndDate: start.AddDate(0, 0, 21)}

	first := s.All()
	second := s.All()
	require.Equal(t, first, second)

	// a fresh iterator is unaffected by a consumed one
	it := s.Iter()
	for {
		if _, ok := it.Next(); !ok {
			break
		}
	}
	again, ok := s.Iter().Next()
	require.True(t, ok)
	require.Equal(t, start, again)
}

func TestSeries_PatternNoneYieldsBaseOnly(t *testing.T) {
	start := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	s := Series{Start: start, Pattern: model.RecurringNone, EndDate: start.AddDate(0, 0, 28)}

	all := s.All()
	require.Len(t, all, 1)
	require.Equal(t, start, all[0])
}
