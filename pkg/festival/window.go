package festival

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sellersaathi/copilot-api/pkg/logger"
)

const (
	DefaultHorizonDays = 90
	MaxHorizonDays     = 366
)

// Window is the festival set for [EvaluationDate, EvaluationDate+HorizonDays].
type Window struct {
	EvaluationDate time.Time
	HorizonDays    int
	Events         []CalendarEvent
	Skipped        []Skip
	SourceErrors   []*SourceError
}

func (w Window) Views() []EventView {
	views := make([]EventView, len(w.Events))
	for i, e := range w.Events {
		views[i] = e.View(w.EvaluationDate)
	}
	return views
}

// Service computes festival windows from a Source. It holds no state
// between calls.
type Service struct {
	source   Source
	now      func() time.Time
	location *time.Location
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone "today" is read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source:   source,
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SourceName() string {
	if s.source == nil {
		return "none"
	}
	return s.source.Name()
}

// Today is the evaluation date for a request being handled now.
func (s *Service) Today() time.Time {
	return DateOf(s.now().In(s.location))
}

// Upcoming computes the default 90 day window from today.
func (s *Service) Upcoming(ctx context.Context) Window {
	return s.ComputeUpcoming(ctx, s.Today(), DefaultHorizonDays)
}

// ComputeUpcoming never fails: unavailable years and malformed records are
// reported on the Window and otherwise contribute nothing.
func (s *Service) ComputeUpcoming(ctx context.Context, evaluationDate time.Time, horizonDays int) Window {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	start := DateOf(evaluationDate)
	end := start.AddDate(0, 0, horizonDays)

	w := Window{EvaluationDate: start, HorizonDays: horizonDays}

	log := logger.FromContext(ctx)
	var all []CalendarEvent
	for year := start.Year(); year <= end.Year(); year++ {
		data, err := s.fetchYear(ctx, year)
		if err != nil {
			var se *SourceError
			if !errors.As(err, &se) {
				se = unavailable(s.SourceName(), year, err)
			}
			w.SourceErrors = append(w.SourceErrors, se)
			log.Warn().Err(err).Int("year", year).Msg("festival data unavailable for year")
			continue
		}

		events, skipped := BuildEvents(year, data)
		all = append(all, events...)
		w.Skipped = append(w.Skipped, skipped...)
		if len(skipped) > 0 {
			log.Debug().Int("year", year).Int("skipped", len(skipped)).Msg("festival records skipped")
		}
	}

	for _, e := range all {
		if !e.Date.Before(start) && !e.Date.After(end) {
			w.Events = append(w.Events, e)
		}
	}
	sort.SliceStable(w.Events, func(i, j int) bool {
		return w.Events[i].Date.Before(w.Events[j].Date)
	})

	return w
}

func (s *Service) fetchYear(ctx context.Context, year int) (data YearData, err error) {
	if s.source == nil {
		return nil, errors.New("no festival source configured")
	}
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, unavailable(s.source.Name(), year, errors.New("source panicked"))
		}
	}()
	data, err = s.source.FestivalsForYear(ctx, year)
	if err == nil && data == nil {
		err = errors.New("source returned no data")
	}
	return data, err
}
