package festival

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sellersaathi/copilot-api/pkg/logger"
)

var ErrSourceUnavailable = errors.New("festival source unavailable")

// Source is an external calendar keyed by year.
type Source interface {
	Name() string
	FestivalsForYear(ctx context.Context, year int) (YearData, error)
}

// SourceError reports a year a source could not deliver. It matches both
// ErrSourceUnavailable and the underlying cause.
type SourceError struct {
	Source string
	Year   int
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("festival source %s, year %d: %v", e.Source, e.Year, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

func unavailable(source string, year int, err error) *SourceError {
	var se *SourceError
	if errors.As(err, &se) {
		return se
	}
	return &SourceError{Source: source, Year: year, Err: err}
}

// MultiSource concatenates the months of several sources in order. A member
// that fails is logged and left out; the year fails only when all do.
type MultiSource struct {
	sources []Source
}

func NewMultiSource(sources ...Source) *MultiSource {
	return &MultiSource{sources: sources}
}

func (m *MultiSource) Name() string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

func (m *MultiSource) Sources() []Source {
	return m.sources
}

func (m *MultiSource) FestivalsForYear(ctx context.Context, year int) (YearData, error) {
	if len(m.sources) == 0 {
		return nil, unavailable(m.Name(), year, errors.New("no sources configured"))
	}

	merged := YearData{}
	var errs []error
	delivered := 0

	for _, src := range m.sources {
		data, err := src.FestivalsForYear(ctx, year)
		if err != nil {
			logger.FromContext(ctx).Warn().
				Err(err).
				Str("source", src.Name()).
				Int("year", year).
				Msg("festival source failed, continuing with the others")
			errs = append(errs, unavailable(src.Name(), year, err))
			continue
		}
		delivered++
		for month, records := range data {
			merged[month] = append(merged[month], records...)
		}
	}

	if delivered == 0 {
		return nil, errors.Join(errs...)
	}
	return merged, nil
}
