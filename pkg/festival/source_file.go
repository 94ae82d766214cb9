package festival

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/festivals.yaml
var embeddedCalendar []byte

type calendarFile struct {
	Years map[int]YearData `yaml:"years"`
}

// FileSource reads a YAML calendar on every call:
//
//	years:
//	  2026:
//	    November:
//	      - {name: Diwali, date: 8}
//
// An empty path reads the calendar compiled into the binary.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Name() string {
	if f.path == "" {
		return "file(embedded)"
	}
	return "file(" + f.path + ")"
}

func (f *FileSource) FestivalsForYear(ctx context.Context, year int) (YearData, error) {
	raw := embeddedCalendar
	if f.path != "" {
		b, err := os.ReadFile(f.path)
		if err != nil {
			return nil, unavailable(f.Name(), year, err)
		}
		raw = b
	}

	var cal calendarFile
	if err := yaml.Unmarshal(raw, &cal); err != nil {
		return nil, unavailable(f.Name(), year, fmt.Errorf("decode calendar: %w", err))
	}

	data, ok := cal.Years[year]
	if !ok || data == nil {
		return nil, unavailable(f.Name(), year, fmt.Errorf("no festivals listed for %d", year))
	}
	return data, nil
}
