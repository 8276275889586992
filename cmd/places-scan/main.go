// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the places-scan CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/places-scan/internal/logging"
	"github.com/pdiddy/places-scan/internal/secrets"
	"github.com/pdiddy/places-scan/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds values loaded from the secrets directory at startup.
	loadedSecrets map[string]string

	// envFileValues holds values parsed from dotenv files at startup.
	envFileValues map[string]string

	logger = zerolog.Nop()
)

// secretDefault returns fallback if set, otherwise the named secret.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the places-scan CLI.
var rootCmd = &cobra.Command{
	Use:   "places-scan",
	Short: "Survey a city for places by scanning a grid of nearby searches",
	Long: `places-scan queries the Places API over a grid of points covering a
bounding box, keeps one record per place that passes the region and relevance
checks, enriches each record with a details lookup, and writes the result to
CSV plus optional SQLite, PostgreSQL, RDS and YAML outputs.

The defaults reproduce the Edmonton cafe survey.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(os.Stderr,
			viper.GetString("log_level"),
			logging.Format(viper.GetString("log_format")),
			viper.GetBool("no_color"),
		)
		if err != nil {
			return err
		}
		logger = l

		s, err := secrets.Load(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		env, err := secrets.LoadEnvFiles(getList("env_files")...)
		if err != nil {
			logger.Warn().Err(err).Msg("could not load env file")
			env = map[string]string{}
		}
		envFileValues = env
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./places-scan.yaml or ~/.config/places-scan/places-scan.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", string(logging.FormatConsole), "log format: console or json")
	pf.Bool("no-color", false, "disable colored console logs")
	pf.String("secrets-dir", ".secrets/", "directory of secret files (places-api-key)")
	pf.StringSlice("env-files", []string{".env", "manipulation/.Renv"}, "dotenv files searched for PLACES_API_KEY")

	// Survey geometry and filters are shared by scan and grid.
	def := types.DefaultScanConfig()
	pf.Float64("north", def.Bounds.North, "northern latitude of the bounding box")
	pf.Float64("south", def.Bounds.South, "southern latitude of the bounding box")
	pf.Float64("east", def.Bounds.East, "eastern longitude of the bounding box")
	pf.Float64("west", def.Bounds.West, "western longitude of the bounding box")
	pf.Float64("step", def.GridStep, "grid step in degrees")
	pf.Int("radius", def.Radius, "nearby-search radius in meters")
	pf.StringSlice("types", def.Types, "place types searched at every grid point")
	pf.StringSlice("keywords", def.Keywords, "keywords searched at every grid point")

	bind := map[string]string{
		"log_level":    "log-level",
		"log_format":   "log-format",
		"no_color":     "no-color",
		"secrets_dir":  "secrets-dir",
		"env_files":    "env-files",
		"bounds.north": "north",
		"bounds.south": "south",
		"bounds.east":  "east",
		"bounds.west":  "west",
		"grid_step":    "step",
		"radius":       "radius",
		"types":        "types",
		"keywords":     "keywords",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	viper.SetDefault("region_margin", def.RegionMargin)
	viper.SetDefault("allow_types", def.AllowTypes)
	viper.SetDefault("allow_name_keywords", def.AllowNameKeywords)
	viper.SetDefault("deny_name_keywords", def.DenyNameKeywords)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("places-scan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "places-scan"))
		}
	}

	viper.SetEnvPrefix("PLACES_SCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// getList reads a list setting. Flags, defaults and config files yield a
// slice; an environment variable yields one string, split here on commas
// so that items may contain spaces ("tea house").
func getList(key string) []string {
	switch v := viper.Get(key).(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), v...)
	case string:
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	default:
		return viper.GetStringSlice(key)
	}
}

// scanConfig assembles the scan parameters from flags, environment and the
// config file. The API key is resolved separately.
func scanConfig() types.ScanConfig {
	cfg := types.DefaultScanConfig()
	cfg.Bounds = types.Bounds{
		North: viper.GetFloat64("bounds.north"),
		South: viper.GetFloat64("bounds.south"),
		East:  viper.GetFloat64("bounds.east"),
		West:  viper.GetFloat64("bounds.west"),
	}
	cfg.GridStep = viper.GetFloat64("grid_step")
	cfg.Radius = viper.GetInt("radius")
	cfg.Types = getList("types")
	cfg.Keywords = getList("keywords")
	cfg.RegionMargin = viper.GetFloat64("region_margin")
	cfg.AllowTypes = getList("allow_types")
	cfg.AllowNameKeywords = getList("allow_name_keywords")
	cfg.DenyNameKeywords = getList("deny_name_keywords")

	if viper.IsSet("timeout") {
		cfg.Timeout = viper.GetDuration("timeout")
	}
	if viper.IsSet("page_token_delay") {
		cfg.PageTokenDelay = viper.GetDuration("page_token_delay")
	}
	if viper.IsSet("quota_cooldown") {
		cfg.QuotaCooldown = viper.GetDuration("quota_cooldown")
	}
	if viper.IsSet("max_quota_retries") {
		cfg.MaxQuotaRetries = viper.GetInt("max_quota_retries")
	}
	if viper.IsSet("search_delay") {
		cfg.SearchDelay = viper.GetDuration("search_delay")
	}
	if viper.IsSet("enrich_batch") {
		cfg.EnrichBatch = viper.GetInt("enrich_batch")
	}
	if viper.IsSet("enrich_pause") {
		cfg.EnrichPause = viper.GetDuration("enrich_pause")
	}
	cfg.UserAgent = "places-scan/" + version
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger.GetLevel() == zerolog.Disabled {
			fmt.Fprintln(os.Stderr, "Error:", err)
		} else {
			logger.Error().Err(err).Msg("places-scan failed")
		}
		os.Exit(1)
	}
}
