// Command ingest loads AFL games from the stats provider into the store and runs
// the maintenance reports over it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maxviazov/afl-stats-service/internal/config"
	"github.com/maxviazov/afl-stats-service/internal/logger"
	"github.com/maxviazov/afl-stats-service/internal/metrics"
	"github.com/maxviazov/afl-stats-service/internal/provider/apisports"
	"github.com/maxviazov/afl-stats-service/internal/service"
	"github.com/maxviazov/afl-stats-service/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const trigger = "cli"

var (
	configFile string

	cfg       *config.Config
	appLogger zerolog.Logger
)

// app holds what a subcommand needs once the store is open.
type app struct {
	writer  *storage.Writer
	ingest  service.IngestionService
	client  *apisports.Client
	metrics *metrics.Metrics
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	a.writer.Close()
}

func openApp(ctx context.Context, withProvider bool) (*app, error) {
	w, err := storage.OpenWriter(ctx, cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	m := metrics.New()
	a := &app{
		writer:  w,
		metrics: m,
		ingest: service.NewIngestionService(service.IngestionRepos{
			Tx:        w.Tx,
			Teams:     w.Teams,
			Venues:    w.Venues,
			Players:   w.Players,
			Games:     w.Games,
			Stats:     w.Stats,
			History:   w.History,
			Integrity: w.Integrity,
		}, m, appLogger),
	}
	if withProvider {
		if cfg.Provider.APIKey == "" {
			a.close()
			return nil, fmt.Errorf("provider.api_key is not set (APP_PROVIDER_API_KEY)")
		}
		a.client = apisports.New(cfg.Provider, m, appLogger)
	}
	return a, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var rootCmd = &cobra.Command{
	Use:           "ingest",
	Short:         "Load AFL player statistics into the over/under store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
		if appLogger, err = logger.New(&cfg.Logger); err != nil {
			return fmt.Errorf("logger initialization failed: %w", err)
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := storage.OpenWriter(cmd.Context(), cfg, appLogger)
		if err != nil {
			return err
		}
		w.Close()
		appLogger.Info().Str("driver", cfg.Storage.Driver).Msg("schema is up to date")
		return nil
	},
}

var seasonCmd = &cobra.Command{
	Use:   "season",
	Short: "Sync every finished game of one or more seasons",
	RunE: func(cmd *cobra.Command, args []string) error {
		seasons, _ := cmd.Flags().GetIntSlice("season")
		if len(seasons) == 0 {
			seasons = cfg.Ingest.Seasons
		}
		if len(seasons) == 0 {
			return fmt.Errorf("no season given: pass --season or set ingest.seasons")
		}
		a, err := openApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()

		syncer := service.NewSyncService(a.client, a.ingest, a.metrics, appLogger)
		ctx := service.WithTrigger(cmd.Context(), trigger)
		reports := make([]service.SyncReport, 0, len(seasons))
		for _, season := range seasons {
			report, err := syncer.SyncSeason(ctx, season)
			if err != nil {
				return fmt.Errorf("season %d: %w", season, err)
			}
			reports = append(reports, report)
		}
		return printJSON(reports)
	},
}

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Sync a single game by its provider id",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt64("id")
		if id <= 0 {
			return fmt.Errorf("--id must be a positive provider game id")
		}
		a, err := openApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()

		syncer := service.NewSyncService(a.client, a.ingest, a.metrics, appLogger)
		report, err := syncer.SyncGame(service.WithTrigger(cmd.Context(), trigger), id)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var daysCmd = &cobra.Command{
	Use:   "days",
	Short: "Recompute days since each player's previous game",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.ingest.RecomputeDaysSinceLastGame(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(map[string]int64{"rows_updated": n})
	},
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List player names shared by more than one provider id",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		groups, err := a.ingest.FindPotentialDuplicates(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(groups)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the data integrity checks; exits non-zero when any fails",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		checks, err := a.ingest.CheckIntegrity(cmd.Context())
		if err != nil {
			return err
		}
		if err := printJSON(checks); err != nil {
			return err
		}
		for _, c := range checks {
			if !c.Passed() {
				return fmt.Errorf("integrity check %q found %d violations", c.Name, c.Violations)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to configuration file")
	seasonCmd.Flags().IntSlice("season", nil, "season year(s) to sync; defaults to ingest.seasons")
	gameCmd.Flags().Int64("id", 0, "provider game id")
	rootCmd.AddCommand(migrateCmd, seasonCmd, gameCmd, daysCmd, duplicatesCmd, checkCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("❌ %v", err)
	}
}
