package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/places-scan/internal/container"
	"github.com/pdiddy/places-scan/internal/places"
	"github.com/pdiddy/places-scan/internal/rscript"
	"github.com/pdiddy/places-scan/internal/scan"
	"github.com/pdiddy/places-scan/internal/secrets"
	"github.com/pdiddy/places-scan/internal/sink"
	"github.com/pdiddy/places-scan/pkg/types"
)

const (
	// maskedKeyPrefix is how much of the API key is echoed at startup.
	maskedKeyPrefix = 10

	// postgresDSNSecret is the secrets-directory entry read when no DSN
	// is configured.
	postgresDSNSecret = "postgres-dsn"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the grid survey and write the results",
	Long: `Scan searches every grid point with every type and keyword filter,
keeps one record per place inside the padded region that passes the relevance
check, enriches each record with a details lookup, and writes the records
sorted by name.

CSV is always written. Secondary sinks (sqlite, postgres, rds, yaml) are
selected with --sinks; their failures are reported as warnings.

On interrupt during the search phase the records found so far are saved to
<name>_partial.csv.`,
	RunE: runScan,
}

func init() {
	def := types.DefaultScanConfig()
	out := types.DefaultOutputConfig()

	f := scanCmd.Flags()
	f.String("api-key", "", "Places API key (default: PLACES_API_KEY, .secrets/places-api-key, or env files)")
	f.Float64("margin", def.RegionMargin, "region margin in degrees beyond the bounding box")
	f.Duration("page-delay", def.PageTokenDelay, "wait before using a continuation token")
	f.Duration("quota-cooldown", def.QuotaCooldown, "wait after an OVER_QUERY_LIMIT status")
	f.Int("max-quota-retries", def.MaxQuotaRetries, "quota waits allowed per request")
	f.Duration("search-delay", def.SearchDelay, "pause after every search call")
	f.Int("enrich-batch", def.EnrichBatch, "details lookups between enrichment pauses")
	f.Duration("enrich-pause", def.EnrichPause, "pause after every enrichment batch")
	f.Duration("timeout", def.Timeout, "HTTP request timeout")
	f.Bool("no-enrich", false, "skip the details lookups")

	f.String("out-dir", out.Dir, "directory for CSV, RDS and YAML outputs")
	f.String("name", out.Name, "base name of the output files")
	f.StringSlice("sinks", out.Sinks, "outputs to write: csv, sqlite, postgres, rds, yaml")
	f.String("sqlite-path", out.SQLitePath, "SQLite database for the sqlite sink")
	f.String("postgres-dsn", "", "connection string for the postgres sink (default: .secrets/postgres-dsn)")
	f.String("table", out.Table, "table replaced by the sqlite and postgres sinks")
	f.String("r-image", out.RImage, "container image used when Rscript is not installed")
	f.Bool("timestamp", false, "append a timestamp to the output file names")

	bind := map[string]string{
		"api_key":             "api-key",
		"region_margin":       "margin",
		"page_token_delay":    "page-delay",
		"quota_cooldown":      "quota-cooldown",
		"max_quota_retries":   "max-quota-retries",
		"search_delay":        "search-delay",
		"enrich_batch":        "enrich-batch",
		"enrich_pause":        "enrich-pause",
		"timeout":             "timeout",
		"no_enrich":           "no-enrich",
		"output.dir":          "out-dir",
		"output.name":         "name",
		"output.sinks":        "sinks",
		"output.sqlite_path":  "sqlite-path",
		"output.postgres_dsn": "postgres-dsn",
		"output.table":        "table",
		"output.r_image":      "r-image",
		"output.timestamp":    "timestamp",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
	_ = viper.BindEnv("output.postgres_dsn", "PLACES_SCAN_POSTGRES_DSN", "PLACES_SCAN_OUTPUT_POSTGRES_DSN")

	rootCmd.AddCommand(scanCmd)
}

func outputConfig() types.OutputConfig {
	sinks := getList("output.sinks")
	for i, s := range sinks {
		sinks[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return types.OutputConfig{
		Dir:         viper.GetString("output.dir"),
		Name:        viper.GetString("output.name"),
		Sinks:       sinks,
		SQLitePath:  viper.GetString("output.sqlite_path"),
		PostgresDSN: secretDefault(postgresDSNSecret, viper.GetString("output.postgres_dsn")),
		Table:       viper.GetString("output.table"),
		RImage:      viper.GetString("output.r_image"),
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := scanConfig()
	key, from := secrets.ResolveAPIKey(secrets.Sources{
		Explicit: viper.GetString("api_key"),
		Getenv:   os.Getenv,
		Dir:      loadedSecrets,
		EnvFiles: envFileValues,
	})
	cfg.APIKey = key
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Using Places API key from %s: %s\n", from, secrets.Mask(key, maskedKeyPrefix))

	client := places.NewClient(cfg, logger)
	scanner := scan.New(cfg, client, logger, os.Stdout)

	out := outputConfig()
	paths := resolvePaths(out, time.Now(), viper.GetBool("output.timestamp"))
	conv := rscript.New(container.OSExecutor{}, out.RImage)
	chain, err := buildChain(out, paths, scanner.ID(), conv)
	if err != nil {
		return err
	}
	if out.Enabled(types.SinkRDS) {
		if backend, err := conv.Backend(); err != nil {
			logger.Warn().Err(err).Msg("RDS output will fail: no R backend")
		} else {
			logger.Debug().Str("backend", backend).Msg("RDS conversion backend")
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Scanning %d searches per grid point, writing to %s\n", cfg.Searches(), paths.CSV)
	res, err := scanner.Run(ctx, scan.Options{SkipEnrich: viper.GetBool("no_enrich")})
	if errors.Is(err, scan.ErrInterrupted) {
		return savePartial(res, paths.Partial, err)
	}
	if err != nil {
		return err
	}

	// Persisting must finish even if an interrupt arrives now.
	persistCtx := context.WithoutCancel(ctx)
	_, warnings, err := chain.Persist(persistCtx, res.Records, os.Stdout)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn().Err(w.Err).Str("sink", w.Sink).Msg("secondary output not written")
	}

	scan.WriteSummary(os.Stdout, res)
	return nil
}

// savePartial writes whatever was found before an interrupt and returns the
// interruption so the process exits non-zero.
func savePartial(res scan.Result, path string, cause error) error {
	fmt.Printf("\nSearch interrupted. Saving %d places found so far...\n", len(res.Records))
	if len(res.Records) == 0 {
		return cause
	}
	if err := (sink.CSVSink{Path: path}).Persist(context.Background(), res.Records); err != nil {
		return errors.Join(cause, fmt.Errorf("saving partial results: %w", err))
	}
	fmt.Printf("Partial results saved to: %s\n", path)
	return cause
}
