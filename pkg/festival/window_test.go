package festival_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellersaathi/copilot-api/pkg/festival"
)

type stubSource struct {
	years map[int]festival.YearData
	fail  map[int]error
	calls []int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FestivalsForYear(_ context.Context, year int) (festival.YearData, error) {
	s.calls = append(s.calls, year)
	if err, ok := s.fail[year]; ok {
		return nil, err
	}
	data, ok := s.years[year]
	if !ok {
		return nil, fmt.Errorf("no data for %d", year)
	}
	return data, nil
}

type panicSource struct{}

func (panicSource) Name() string { return "panic" }

func (panicSource) FestivalsForYear(context.Context, int) (festival.YearData, error) {
	panic("boom")
}

func TestComputeUpcoming_FiltersAndSorts(t *testing.T) {
	src := &stubSource{years: map[int]festival.YearData{
		2026: {
			"November": {{Name: "Diwali", Date: "8"}, {Name: "Dhanteras", Date: "6"}},
			"October":  {{Name: "Dussehra", Date: "20"}, {Name: "Gandhi Jayanti", Date: "2"}},
			"March":    {{Name: "Holi", Date: "4"}},
		},
	}}
	svc := festival.NewService(src)

	w := svc.ComputeUpcoming(context.Background(), day(2026, time.September, 1), 90)

	names := make([]string, len(w.Events))
	for i, e := range w.Events {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"Gandhi Jayanti", "Dussehra", "Dhanteras", "Diwali"}, names)
	assert.Equal(t, []int{2026}, src.calls)
	assert.Empty(t, w.SourceErrors)
}

func TestComputeUpcoming_BoundsAreInclusive(t *testing.T) {
	src := &stubSource{years: map[int]festival.YearData{
		2026: {
			"June":   {{Name: "Start", Date: "1"}},
			"August": {{Name: "End", Date: "30"}, {Name: "Outside", Date: "31"}},
			"May":    {{Name: "Yesterday", Date: "31"}},
		},
	}}
	w := festival.NewService(src).ComputeUpcoming(context.Background(), day(2026, time.June, 1), 90)

	require.Len(t, w.Events, 2)
	assert.Equal(t, "Start", w.Events[0].Name)
	assert.Equal(t, "End", w.Events[1].Name)
	assert.Equal(t, 90, w.Events[1].DaysUntil(w.EvaluationDate))
}

func TestComputeUpcoming_CrossesYearBoundary(t *testing.T) {
	src := &stubSource{years: map[int]festival.YearData{
		2025: {"December": {{Name: "Christmas", Date: "25"}}},
		2026: {"January": {{Name: "Makar Sankranti", Date: "14"}}},
	}}
	w := festival.NewService(src).ComputeUpcoming(context.Background(), day(2025, time.December, 20), 90)

	assert.Equal(t, []int{2025, 2026}, src.calls)
	require.Len(t, w.Events, 2)
	assert.Equal(t, "Christmas", w.Events[0].Name)
	assert.Equal(t, "Makar Sankranti", w.Events[1].Name)
}

func TestComputeUpcoming_MissingYearStillReturnsTheOther(t *testing.T) {
	src := &stubSource{
		years: map[int]festival.YearData{2025: {"December": {{Name: "Christmas", Date: "25"}}}},
		fail:  map[int]error{2026: errors.New("connection refused")},
	}
	w := festival.NewService(src).ComputeUpcoming(context.Background(), day(2025, time.December, 20), 90)

	require.Len(t, w.Events, 1)
	require.Len(t, w.SourceErrors, 1)
	assert.Equal(t, 2026, w.SourceErrors[0].Year)
	assert.ErrorIs(t, w.SourceErrors[0], festival.ErrSourceUnavailable)
}

func TestComputeUpcoming_MalformedRecordSkipped(t *testing.T) {
	src := &stubSource{years: map[int]festival.YearData{
		2026: {"November": {{Name: "Diwali", Date: "8"}, {Name: "Mystery", Date: "soon"}}},
	}}
	w := festival.NewService(src).ComputeUpcoming(context.Background(), day(2026, time.October, 18), 90)

	require.Len(t, w.Events, 1)
	require.Len(t, w.Skipped, 1)
	assert.Equal(t, "Mystery", w.Skipped[0].Name)
}

func TestComputeUpcoming_PanickingSourceIsContained(t *testing.T) {
	w := festival.NewService(panicSource{}).ComputeUpcoming(context.Background(), day(2026, time.October, 18), 90)

	assert.Empty(t, w.Events)
	// the window runs into January, so both years are asked for
	require.Len(t, w.SourceErrors, 2)
	for i, year := range []int{2026, 2027} {
		assert.Equal(t, "panic", w.SourceErrors[i].Source)
		assert.Equal(t, year, w.SourceErrors[i].Year)
	}
}

func TestComputeUpcoming_NoSource(t *testing.T) {
	w := festival.NewService(nil).ComputeUpcoming(context.Background(), day(2026, time.October, 18), 0)

	assert.Equal(t, festival.DefaultHorizonDays, w.HorizonDays)
	assert.Empty(t, w.Events)
	require.Len(t, w.SourceErrors, 2)
	assert.Equal(t, 2026, w.SourceErrors[0].Year)
	assert.Equal(t, 2027, w.SourceErrors[1].Year)
	assert.Equal(t, "none", w.SourceErrors[0].Source)

	w = festival.NewService(nil).ComputeUpcoming(context.Background(), day(2026, time.March, 1), 90)
	assert.Len(t, w.SourceErrors, 1)
}

func TestComputeUpcoming_HorizonSpanningThreeYears(t *testing.T) {
	src := &stubSource{years: map[int]festival.YearData{
		2026: {"December": {{Name: "Christmas", Date: "31"}}},
		2027: {"June": {{Name: "Eid", Date: "16"}}},
		2028: {"January": {{Name: "New Year", Date: "1"}}},
	}}
	w := festival.NewService(src).ComputeUpcoming(context.Background(), day(2026, time.December, 31), 366)

	assert.Equal(t, []int{2026, 2027, 2028}, src.calls)
	require.Len(t, w.Events, 3)
	assert.Equal(t, "Eid", w.Events[1].Name)
	assert.Empty(t, w.SourceErrors)
}

func TestComputeUpcoming_Idempotent(t *testing.T) {
	src := &stubSource{years: map[int]festival.YearData{
		2026: {"November": {{Name: "Diwali", Date: "8"}, {Name: "Bhai Dooj", Date: "11"}}},
	}}
	svc := festival.NewService(src)
	eval := day(2026, time.October, 18)

	first := svc.ComputeUpcoming(context.Background(), eval, 90)
	second := svc.ComputeUpcoming(context.Background(), eval, 90)
	assert.Equal(t, first, second)
}

func TestService_TodayUsesLocation(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC on the 17th is already the 18th in Kolkata.
	now := time.Date(2026, time.October, 17, 20, 0, 0, 0, time.UTC)
	svc := festival.NewService(nil, festival.WithClock(func() time.Time { return now }), festival.WithLocation(ist))

	assert.Equal(t, day(2026, time.October, 18), svc.Today())
}

func TestWindow_Views(t *testing.T) {
	src := &stubSource{years: map[int]festival.YearData{
		2026: {"November": {{Name: "Diwali", Date: "8"}}},
	}}
	w := festival.NewService(src).ComputeUpcoming(context.Background(), day(2026, time.October, 18), 90)

	assert.Equal(t, []festival.EventView{{Name: "Diwali", Date: "2026-11-08", DaysUntil: 21}}, w.Views())
}

func TestFormatForInlinePrompt(t *testing.T) {
	assert.Equal(t, festival.NoUpcomingFestivalsInline, festival.FormatForInlinePrompt(nil, 15))

	var events []festival.CalendarEvent
	for i := 1; i <= 20; i++ {
		events = append(events, festival.CalendarEvent{Name: fmt.Sprintf("F%d", i), Date: day(2026, time.November, i)})
	}
	out := festival.FormatForInlinePrompt(events, 15)
	parts := strings.Split(out, ", ")
	require.Len(t, parts, 15)
	assert.Equal(t, "F1 (2026-11-01)", parts[0])
	assert.Equal(t, "F15 (2026-11-15)", parts[14])
}

func TestFormatForChatContext(t *testing.T) {
	assert.Equal(t, festival.NoUpcomingFestivalsChat, festival.FormatForChatContext(nil))

	out := festival.FormatForChatContext([]festival.CalendarEvent{
		{Name: "Dhanteras", Date: day(2026, time.November, 6)},
		{Name: "Diwali", Date: day(2026, time.November, 8)},
	})
	assert.Equal(t, "- Dhanteras on November 06, 2026\n- Diwali on November 08, 2026", out)

	var events []festival.CalendarEvent
	for i := 1; i <= 20; i++ {
		events = append(events, festival.CalendarEvent{Name: fmt.Sprintf("F%d", i), Date: day(2026, time.November, i)})
	}
	lines := strings.Split(festival.FormatForChatContext(events), "\n")
	require.Len(t, lines, 20, "chat context is never truncated")
	assert.Equal(t, "- F1 on November 01, 2026", lines[0])
	assert.Equal(t, "- F20 on November 20, 2026", lines[19])
}
