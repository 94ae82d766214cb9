package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sellersaathi/copilot-api/pkg/festival"
	"github.com/sellersaathi/copilot-api/pkg/logger"
	"github.com/sellersaathi/copilot-api/pkg/mongo"
)

var (
	festivalDate    string
	festivalHorizon int
	festivalFormat  string

	importYear int
	importFrom string
)

var festivalsCmd = &cobra.Command{
	Use:   "festivals",
	Short: "Print the upcoming festival window",
	Long: `Computes the festival window from the configured sources, exactly as the
planner and chat prompts see it.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		source, closeSource, err := buildSource(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeSource()

		svc := festival.NewService(source, festival.WithLocation(cfg.Location()))
		return printFestivals(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), svc, festivalOptions{
			date:      festivalDate,
			horizon:   festivalHorizon,
			format:    festivalFormat,
			inlineMax: cfg.Festivals.InlineMax,
		})
	},
}

var festivalsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a year of festivals into MongoDB",
	Long: `Reads one year from --from (a YAML file, a JSON calendar URL or an .ics URL;
the embedded calendar when empty) and replaces that year in the festivals
collection.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		data, err := importSource(importFrom).FestivalsForYear(ctx, importYear)
		if err != nil {
			return fmt.Errorf("read festivals for %d: %w", importYear, err)
		}
		records := mongo.RecordsFromYearData(importYear, data)

		client, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Logger.Warn().Err(err).Msg("disconnect mongodb")
			}
		}()

		coll := mongo.FestivalCollection(client, cfg.Mongo)
		if err := mongo.EnsureIndexes(ctx, coll); err != nil {
			return err
		}
		n, err := mongo.NewCollectionStore(coll).ReplaceYear(ctx, importYear, records)
		if err != nil {
			return err
		}

		logger.Logger.Info().Int("year", importYear).Int("records", n).Str("collection", cfg.Mongo.Collection).Msg("festivals imported")
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d festival records for %d into %s.%s\n", n, importYear, cfg.Mongo.Database, cfg.Mongo.Collection)
		return nil
	},
}

func init() {
	festivalsCmd.Flags().StringVar(&festivalDate, "date", "", "evaluation date as YYYY-MM-DD (default today)")
	festivalsCmd.Flags().IntVar(&festivalHorizon, "horizon", festival.DefaultHorizonDays, "window length in days")
	festivalsCmd.Flags().StringVar(&festivalFormat, "format", "inline", "output format: inline, chat or json")

	festivalsImportCmd.Flags().IntVar(&importYear, "year", time.Now().Year(), "year to import")
	festivalsImportCmd.Flags().StringVar(&importFrom, "from", "", "calendar file or URL (default embedded calendar)")
	festivalsCmd.AddCommand(festivalsImportCmd)
}

type festivalOptions struct {
	date      string
	horizon   int
	format    string
	inlineMax int
}

type festivalReport struct {
	EvaluationDate string               `json:"evaluationDate"`
	HorizonDays    int                  `json:"horizonDays"`
	Source         string               `json:"source"`
	Festivals      []festival.EventView `json:"festivals"`
	Skipped        []festival.Skip      `json:"skipped,omitempty"`
}

func printFestivals(ctx context.Context, out, errOut io.Writer, svc *festival.Service, opts festivalOptions) error {
	if opts.horizon < 1 || opts.horizon > festival.MaxHorizonDays {
		return fmt.Errorf("--horizon must be between 1 and %d days", festival.MaxHorizonDays)
	}

	evaluationDate := svc.Today()
	if opts.date != "" {
		parsed, err := time.Parse(festival.CanonicalLayout, opts.date)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
		evaluationDate = parsed
	}

	w := svc.ComputeUpcoming(ctx, evaluationDate, opts.horizon)
	for _, se := range w.SourceErrors {
		fmt.Fprintf(errOut, "warning: %v\n", se)
	}

	switch opts.format {
	case "inline":
		fmt.Fprintln(out, festival.FormatForInlinePrompt(w.Events, opts.inlineMax))
	case "chat":
		fmt.Fprintln(out, festival.FormatForChatContext(w.Events))
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(festivalReport{
			EvaluationDate: festival.FormatCanonical(w.EvaluationDate),
			HorizonDays:    w.HorizonDays,
			Source:         svc.SourceName(),
			Festivals:      w.Views(),
			Skipped:        w.Skipped,
		})
	default:
		return fmt.Errorf("unknown format %q, expected inline, chat or json", opts.format)
	}
	return nil
}
