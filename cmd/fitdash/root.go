package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"

	"github.com/2beens/fitdash/internal/config"
	"github.com/2beens/fitdash/internal/dashboard"
	"github.com/2beens/fitdash/internal/dataset"
	"github.com/2beens/fitdash/internal/filter"
	"github.com/2beens/fitdash/internal/geocode"
	"github.com/2beens/fitdash/internal/logging"
	"github.com/2beens/fitdash/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	env        string
	dataPath   string
	delimiter  string
	noGeocode  bool
	logLevel   string
}

type filterOptions struct {
	from       string
	to         string
	activities []string
	locations  []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:          "fitdash",
		Short:        "Fitness export reports",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// stdout carries the report
			log.SetOutput(cmd.ErrOrStderr())
			log.SetLevel(logging.GetLevel(opts.logLevel))
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path for the TOML config file (optional)")
	rootCmd.PersistentFlags().StringVar(&opts.env, "env", "development", "config environment [dev | development | prod | production]")
	rootCmd.PersistentFlags().StringVar(&opts.dataPath, "data", "", "path of the fitness export (overrides data_csv_path)")
	rootCmd.PersistentFlags().StringVar(&opts.delimiter, "delimiter", "", "field delimiter of the export (overrides csv_delimiter)")
	rootCmd.PersistentFlags().BoolVar(&opts.noGeocode, "no-geocode", false, "skip reverse geocoding, use rounded coordinates as locations")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level [trace | debug | info | warn | error]")

	rootCmd.AddCommand(newSummaryCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))

	return rootCmd
}

func addFilterFlags(cmd *cobra.Command, f *filterOptions) {
	cmd.Flags().StringVar(&f.from, "from", "", "first day, YYYY-MM-DD; empty for an open bound")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, YYYY-MM-DD; empty for an open bound")
	cmd.Flags().StringArrayVar(&f.activities, "activity", nil, "activity to include, repeatable")
	cmd.Flags().StringArrayVar(&f.locations, "location", nil, "location to include, repeatable")
}

// filterState applies the flags the user set on top of defaults,
// with the same rules as the HTTP query.
func filterState(cmd *cobra.Command, f *filterOptions, defaults filter.State) (filter.State, error) {
	q := url.Values{}
	if cmd.Flags().Changed("from") {
		q["from"] = []string{f.from}
	}
	if cmd.Flags().Changed("to") {
		q["to"] = []string{f.to}
	}
	if cmd.Flags().Changed("activity") {
		q["activity"] = append([]string{}, f.activities...)
	}
	if cmd.Flags().Changed("location") {
		q["location"] = append([]string{}, f.locations...)
	}
	return dashboard.ParseFilterQuery(q, defaults)
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.env, o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.dataPath != "" {
		cfg.DataCsvPath = o.dataPath
	}
	if o.delimiter != "" {
		cfg.CsvDelimiter = o.delimiter
	}
	if o.noGeocode {
		cfg.GeocodingEnabled = false
	}
	if cfg.DataCsvPath == "" {
		return nil, fmt.Errorf("no data file: set --data or data_csv_path")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// loadDataset runs one full load; the returned cleanup closes what the load opened.
func (o *rootOptions) loadDataset(ctx context.Context) (*config.Config, *dataset.Dataset, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	metricsManager := metrics.NewManager("fitdash", "cli", prometheus.NewRegistry())
	cleanup := func() {}

	var reverser geocode.Reverser = geocode.NewNominatimClient(
		cfg.GeocodeBaseURL,
		cfg.GeocodeUserAgent,
		&http.Client{Timeout: cfg.GeocodeTimeout()},
	)
	if cfg.GeocodingEnabled && cfg.RedisCacheEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: os.Getenv("FITDASH_REDIS_PASS"),
		})
		cleanup = func() {
			if err := rdb.Close(); err != nil {
				log.Errorf("close redis client: %s", err)
			}
		}
		reverser = geocode.NewRedisCachedReverser(reverser, rdb, cfg.GeocodeRedisTTL(), metricsManager)
	}

	loader := dataset.NewLoader(dataset.LoaderParams{
		Reverser:         reverser,
		GeocodingEnabled: cfg.GeocodingEnabled,
		GeocodeTimeout:   cfg.GeocodeTimeout(),
		Delimiter:        cfg.Delimiter(),
		MetricsManager:   metricsManager,
	})
	ds, err := loader.LoadFile(ctx, cfg.DataCsvPath)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return cfg, ds, cleanup, nil
}
