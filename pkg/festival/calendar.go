package festival

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const UnknownFestivalName = "Unknown Festival"

var ErrMalformedRecord = errors.New("malformed festival record")

// CalendarEvent is one festival occurrence. Date is always midnight UTC.
type CalendarEvent struct {
	Name string
	Date time.Time
}

func (e CalendarEvent) DaysUntil(evaluationDate time.Time) int {
	return DaysBetween(evaluationDate, e.Date)
}

// EventView is the JSON shape handed to API clients.
type EventView struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	DaysUntil int    `json:"daysUntil"`
}

func (e CalendarEvent) View(evaluationDate time.Time) EventView {
	return EventView{
		Name:      e.Name,
		Date:      FormatCanonical(e.Date),
		DaysUntil: e.DaysUntil(evaluationDate),
	}
}

// DayValue holds a day-of-month exactly as the source sent it. Sources send
// both strings and numbers, so decoding never fails on type; parsing happens
// in ParseRecord.
type DayValue string

func (d *DayValue) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*d = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = DayValue(s)
	default:
		*d = DayValue(raw)
	}
	return nil
}

func (d *DayValue) UnmarshalYAML(value *yaml.Node) error {
	switch {
	case value.Kind != yaml.ScalarNode:
		*d = DayValue("<" + value.ShortTag() + ">")
	case value.ShortTag() == "!!null":
		*d = ""
	default:
		*d = DayValue(value.Value)
	}
	return nil
}

// DayFromAny converts a loosely typed decoded value (e.g. from BSON).
func DayFromAny(v any) DayValue {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return DayValue(t)
	case int:
		return DayValue(strconv.Itoa(t))
	case int32:
		return DayValue(strconv.FormatInt(int64(t), 10))
	case int64:
		return DayValue(strconv.FormatInt(t, 10))
	case float64:
		return DayValue(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return DayValue(fmt.Sprint(t))
	}
}

// RawFestival is a record as delivered by a calendar source. Problem is set
// when the record could not be read at all; ParseRecord skips it.
type RawFestival struct {
	Name    string   `json:"name" yaml:"name"`
	Date    DayValue `json:"date" yaml:"date"`
	Problem string   `json:"-" yaml:"-"`
}

func malformed(problem string) RawFestival {
	return RawFestival{Problem: problem}
}

// UnmarshalJSON never fails; a record it cannot read comes back with Problem
// set so the rest of the month survives.
func (r *RawFestival) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil || fields == nil {
		*r = malformed("record is not an object")
		return nil
	}

	var rec RawFestival
	if raw, ok := fields["name"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &rec.Name); err != nil {
			*r = malformed("name is not a string")
			return nil
		}
	}
	if raw, ok := fields["date"]; ok {
		if err := rec.Date.UnmarshalJSON(raw); err != nil {
			*r = malformed("date is unreadable")
			return nil
		}
	}
	*r = rec
	return nil
}

func (r *RawFestival) UnmarshalYAML(value *yaml.Node) error {
	value = resolveAlias(value)
	if value.Kind != yaml.MappingNode {
		*r = malformed("record is not a mapping")
		return nil
	}

	var rec RawFestival
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i].Value, resolveAlias(value.Content[i+1])
		switch key {
		case "name":
			switch {
			case val.ShortTag() == "!!null":
			case val.Kind != yaml.ScalarNode || val.ShortTag() != "!!str":
				*r = malformed("name is not a string")
				return nil
			default:
				rec.Name = val.Value
			}
		case "date":
			if err := rec.Date.UnmarshalYAML(val); err != nil {
				*r = malformed("date is unreadable")
				return nil
			}
		}
	}
	*r = rec
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// YearData groups a year's festivals by English month name.
type YearData map[string][]RawFestival

// UnmarshalJSON fails only when the body is not an object of months. A month
// that is not a list becomes a single malformed record.
func (y *YearData) UnmarshalJSON(b []byte) error {
	var months map[string]json.RawMessage
	if err := json.Unmarshal(b, &months); err != nil {
		return err
	}
	if months == nil {
		*y = nil
		return nil
	}

	data := make(YearData, len(months))
	for month, raw := range months {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			data[month] = []RawFestival{malformed("month is not a list")}
			continue
		}
		records := make([]RawFestival, len(items))
		for i, item := range items {
			_ = records[i].UnmarshalJSON(item)
		}
		data[month] = records
	}
	*y = data
	return nil
}

func (y *YearData) UnmarshalYAML(value *yaml.Node) error {
	value = resolveAlias(value)
	if value.ShortTag() == "!!null" {
		*y = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: calendar year is not a mapping of months", value.Line)
	}

	data := make(YearData, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		month, list := value.Content[i].Value, resolveAlias(value.Content[i+1])
		switch {
		case list.ShortTag() == "!!null":
			continue
		case list.Kind != yaml.SequenceNode:
			data[month] = append(data[month], malformed("month is not a list"))
		default:
			for _, item := range list.Content {
				var rec RawFestival
				_ = rec.UnmarshalYAML(item)
				data[month] = append(data[month], rec)
			}
		}
	}
	*y = data
	return nil
}

var monthNumbers = func() map[string]time.Month {
	table := make(map[string]time.Month, 12)
	for m := time.January; m <= time.December; m++ {
		table[m.String()] = m
	}
	return table
}()

// MonthNumber looks a month name up in the fixed January..December table.
func MonthNumber(name string) (time.Month, bool) {
	m, ok := monthNumbers[strings.TrimSpace(name)]
	return m, ok
}

type SkipReason string

const (
	SkipUnknownMonth  SkipReason = "unknown_month"
	SkipMissingDay    SkipReason = "missing_day"
	SkipNonNumericDay SkipReason = "non_numeric_day"
	SkipDayOutOfRange SkipReason = "day_out_of_range"
	SkipMalformed     SkipReason = "malformed_record"
)

// Skip records a source record that was dropped and why.
type Skip struct {
	Year   int        `json:"year"`
	Month  string     `json:"month"`
	Name   string     `json:"name,omitempty"`
	Day    string     `json:"day,omitempty"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

func (s Skip) Error() string {
	return fmt.Sprintf("skipped %q (%s %s, %d): %s", s.Name, s.Month, s.Day, s.Year, s.Reason)
}

func (s Skip) Unwrap() error {
	return ErrMalformedRecord
}

// RecordOutcome is either a parsed event or a skip, never both.
type RecordOutcome struct {
	Event   CalendarEvent
	Skipped *Skip
}

func (o RecordOutcome) Parsed() bool {
	return o.Skipped == nil
}

// ParseRecord turns one source record into an event, or explains why not.
func ParseRecord(year int, month time.Month, rec RawFestival) RecordOutcome {
	skip := func(reason SkipReason) RecordOutcome {
		return RecordOutcome{Skipped: &Skip{
			Year:   year,
			Month:  month.String(),
			Name:   rec.Name,
			Day:    string(rec.Date),
			Reason: reason,
			Detail: rec.Problem,
		}}
	}

	if rec.Problem != "" {
		return skip(SkipMalformed)
	}
	raw := strings.TrimSpace(string(rec.Date))
	if raw == "" {
		return skip(SkipMissingDay)
	}
	day, ok := parseDay(raw)
	if !ok {
		return skip(SkipNonNumericDay)
	}
	if day < 1 || day > daysIn(month, year) {
		return skip(SkipDayOutOfRange)
	}

	name := strings.TrimSpace(rec.Name)
	if name == "" {
		name = UnknownFestivalName
	}
	return RecordOutcome{Event: CalendarEvent{
		Name: name,
		Date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
	}}
}

// BuildEvents parses a whole year. Months are visited January..December so
// the output order does not depend on map iteration. Records under a month
// name outside the table are skipped.
func BuildEvents(year int, data YearData) ([]CalendarEvent, []Skip) {
	var events []CalendarEvent
	var skipped []Skip

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	for m := time.January; m <= time.December; m++ {
		for _, name := range names {
			if month, ok := MonthNumber(name); !ok || month != m {
				continue
			}
			for _, rec := range data[name] {
				outcome := ParseRecord(year, m, rec)
				if outcome.Parsed() {
					events = append(events, outcome.Event)
				} else {
					skipped = append(skipped, *outcome.Skipped)
				}
			}
		}
	}

	for _, name := range names {
		if _, ok := MonthNumber(name); ok {
			continue
		}
		for _, rec := range data[name] {
			skipped = append(skipped, Skip{
				Year:   year,
				Month:  name,
				Name:   rec.Name,
				Day:    string(rec.Date),
				Reason: SkipUnknownMonth,
			})
		}
	}

	return events, skipped
}

func parseDay(raw string) (int, bool) {
	if day, err := strconv.Atoi(raw); err == nil {
		return day, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
