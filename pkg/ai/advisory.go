package ai

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/sellersaathi/copilot-api/pkg/festival"
)

// Urgency thresholds in days until the event.
const (
	HighUrgencyDays   = 14
	MediumUrgencyDays = 45
)

// UrgencyFor maps a day count onto high, medium or low.
func UrgencyFor(days int) string {
	switch {
	case days <= HighUrgencyDays:
		return "high"
	case days <= MediumUrgencyDays:
		return "medium"
	default:
		return "low"
	}
}

// Correction records a provider value replaced by a locally computed one.
type Correction struct {
	Path     string `json:"path"`
	Provider string `json:"provider"`
	Computed string `json:"computed"`
}

// Note records a record that could not be corrected and was left as the
// provider sent it.
type Note struct {
	Path    string `json:"path"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// CorrectAdvisory walks v (a pointer to a struct) and recomputes every field
// tagged advisory:"daysUntil=<dateField>" or advisory:"urgency=<dateField>"
// from the sibling date field. A date that does not parse leaves that
// record's advisory fields untouched and adds a Note.
func CorrectAdvisory(v any, evaluationDate time.Time) ([]Correction, []Note) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, nil
	}
	c := &corrector{evaluationDate: festival.DateOf(evaluationDate)}
	c.walk(rv.Elem(), "$")
	return c.corrections, c.notes
}

type corrector struct {
	evaluationDate time.Time
	corrections    []Correction
	notes          []Note
}

func (c *corrector) walk(v reflect.Value, path string) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			c.walk(v.Elem(), path)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			c.walk(v.Index(i), fmt.Sprintf("%s[%d]", path, i))
		}
	case reflect.Struct:
		c.correctStruct(v, path)
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			name, _, _ := jsonName(t.Field(i))
			c.walk(v.Field(i), path+"."+name)
		}
	}
}

func (c *corrector) correctStruct(v reflect.Value, path string) {
	t := v.Type()
	noted := map[string]bool{}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("advisory")
		if tag == "" || !sf.IsExported() {
			continue
		}
		mode, dateField, ok := strings.Cut(tag, "=")
		if !ok {
			continue
		}

		dateValue, found := siblingString(v, dateField)
		if !found {
			continue
		}
		date, err := festival.ParseDate(dateValue, c.evaluationDate)
		if err != nil {
			if !noted[dateField] {
				noted[dateField] = true
				c.notes = append(c.notes, Note{
					Path:    path + "." + dateField,
					Kind:    KindMalformedRecord,
					Message: err.Error(),
				})
			}
			continue
		}

		days := festival.DaysBetween(c.evaluationDate, date)
		var computed string
		switch mode {
		case "daysUntil":
			computed = strconv.Itoa(days)
		case "urgency":
			computed = UrgencyFor(days)
		default:
			continue
		}

		name, _, _ := jsonName(sf)
		if before, changed := setScalar(v.Field(i), computed); changed {
			c.corrections = append(c.corrections, Correction{
				Path:     path + "." + name,
				Provider: before,
				Computed: computed,
			})
		}
	}
}

func siblingString(v reflect.Value, jsonField string) (string, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := jsonName(t.Field(i))
		if name != jsonField {
			continue
		}
		f := v.Field(i)
		if f.Kind() == reflect.Pointer {
			if f.IsNil() {
				return "", false
			}
			f = f.Elem()
		}
		if f.Kind() != reflect.String {
			return "", false
		}
		return f.String(), true
	}
	return "", false
}

// setScalar stores value into an int or string field and reports the
// previous value and whether it changed.
func setScalar(f reflect.Value, value string) (string, bool) {
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return "", false
		}
		before := f.Int()
		f.SetInt(n)
		return strconv.FormatInt(before, 10), before != n
	case reflect.String:
		before := f.String()
		f.SetString(value)
		return before, before != value
	}
	return "", false
}
