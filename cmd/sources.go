package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sellersaathi/copilot-api/pkg/config"
	"github.com/sellersaathi/copilot-api/pkg/festival"
	"github.com/sellersaathi/copilot-api/pkg/logger"
	"github.com/sellersaathi/copilot-api/pkg/mongo"
)

// buildSource assembles the configured festival sources in order. The
// returned func releases any connections they hold.
func buildSource(ctx context.Context, cfg *config.Config) (festival.Source, func(), error) {
	var sources []festival.Source
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, name := range cfg.Festivals.Sources {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "file":
			sources = append(sources, festival.NewFileSource(cfg.Festivals.File))
		case "http":
			if cfg.Festivals.HTTPURL == "" {
				closeAll()
				return nil, nil, fmt.Errorf("festival source http needs FESTIVAL_HTTP_URL")
			}
			sources = append(sources, festival.NewHTTPSource(cfg.Festivals.HTTPURL, nil))
		case "ics":
			if cfg.Festivals.ICSURL == "" {
				closeAll()
				return nil, nil, fmt.Errorf("festival source ics needs FESTIVAL_ICS_URL")
			}
			sources = append(sources, festival.NewICSSource(cfg.Festivals.ICSURL, nil))
		case "mongo":
			client, err := mongo.Connect(ctx, cfg.Mongo)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("festival source mongo: %w", err)
			}
			closers = append(closers, func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Logger.Warn().Err(err).Msg("disconnect mongodb")
				}
			})
			store := mongo.NewCollectionStore(mongo.FestivalCollection(client, cfg.Mongo))
			sources = append(sources, mongo.NewFestivalSource(store))
		case "":
		default:
			closeAll()
			return nil, nil, fmt.Errorf("unknown festival source %q", name)
		}
	}

	switch len(sources) {
	case 0:
		return festival.NewFileSource(""), closeAll, nil
	case 1:
		return sources[0], closeAll, nil
	default:
		return festival.NewMultiSource(sources...), closeAll, nil
	}
}

// importSource picks a source for the import command: empty means the
// embedded calendar, a URL ending in .ics an iCalendar feed, any other URL
// a JSON calendar and anything else a YAML file.
func importSource(from string) festival.Source {
	switch {
	case from == "":
		return festival.NewFileSource("")
	case strings.HasPrefix(from, "http://") || strings.HasPrefix(from, "https://"):
		if strings.HasSuffix(strings.ToLower(from), ".ics") {
			return festival.NewICSSource(from, nil)
		}
		return festival.NewHTTPSource(from, nil)
	default:
		return festival.NewFileSource(from)
	}
}
