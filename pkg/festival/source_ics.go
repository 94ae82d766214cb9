package festival

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/sellersaathi/copilot-api/pkg/logger"
)

// ICSSource reads festivals from an iCalendar feed (for example a public
// holiday calendar). Yearly RRULEs are expanded inside the requested year and
// occurrences are regrouped by month name so they go through the same
// record parsing as every other source.
type ICSSource struct {
	url    string
	client *http.Client
}

func NewICSSource(url string, client *http.Client) *ICSSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ICSSource{url: url, client: client}
}

func (s *ICSSource) Name() string {
	return "ics"
}

func (s *ICSSource) FestivalsForYear(ctx context.Context, year int) (YearData, error) {
	body, err := fetchBody(ctx, s.client, s.url, "text/calendar")
	if err != nil {
		return nil, unavailable(s.Name(), year, err)
	}

	data, err := ParseICSYear(ctx, body, year)
	if err != nil {
		return nil, unavailable(s.Name(), year, err)
	}
	return data, nil
}

// ParseICSYear collects every VEVENT occurrence falling in year.
func ParseICSYear(ctx context.Context, body []byte, year int) (YearData, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	log := logger.FromContext(ctx)
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	data := YearData{}
	for _, ve := range cal.Events() {
		name := ""
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			name = strings.TrimSpace(p.Value)
		}

		dates, err := occurrences(ve, yearStart, yearEnd)
		if err != nil {
			log.Debug().Err(err).Str("summary", name).Msg("ics event skipped")
			continue
		}
		for _, d := range dates {
			month := d.Month().String()
			data[month] = append(data[month], RawFestival{
				Name: name,
				Date: DayValue(strconv.Itoa(d.Day())),
			})
		}
	}
	return data, nil
}

func occurrences(ve *ical.VEvent, from, to time.Time) ([]time.Time, error) {
	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return nil, errors.New("missing DTSTART")
	}
	start, err := icsDate(startProp.Value)
	if err != nil {
		return nil, err
	}

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil || strings.TrimSpace(rruleProp.Value) == "" {
		if start.Before(from) || start.After(to) {
			return nil, nil
		}
		return []time.Time{start}, nil
	}

	opt, err := rrule.StrToROption(rruleProp.Value)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE %q: %w", rruleProp.Value, err)
	}
	opt.Dtstart = start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build RRULE: %w", err)
	}

	excluded := map[time.Time]bool{}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if d, err := icsDate(part); err == nil {
				excluded[d] = true
			}
		}
	}

	var out []time.Time
	for _, occ := range rule.Between(from, to, true) {
		d := DateOf(occ)
		if !excluded[d] {
			out = append(out, d)
		}
	}
	return out, nil
}

// icsDate reads the calendar date of a DATE or DATE-TIME value; festivals
// are all-day so the time part is ignored.
func icsDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) < 8 {
		return time.Time{}, fmt.Errorf("invalid ICS date %q", value)
	}
	t, err := time.Parse("20060102", value[:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ICS date %q: %w", value, err)
	}
	return t, nil
}
