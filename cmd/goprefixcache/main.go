package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprefixcache/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath     string
		manifestPath   string
		providerKey    string
		providerBase   string
		maxAttempts    int
		requestTimeout time.Duration
		sweepInterval  time.Duration
		invalidate     string
		showStats      bool
		verbose        bool
	)

	flag.StringVar(&configPath, "config", "", "Path to YAML/JSON config file (lowest precedence)")
	flag.StringVar(&manifestPath, "manifest", os.Getenv("CACHE_MANIFEST"), "Path to warm manifest listing prefixes to cache")
	flag.StringVar(&providerKey, "provider.key", os.Getenv("GEMINI_API_KEY"), "API key for the remote cache provider")
	flag.StringVar(&providerBase, "provider.base", os.Getenv("GEMINI_BASE_URL"), "Provider base URL override (e.g. a local stub)")
	flag.IntVar(&maxAttempts, "provider.maxAttempts", 0, "Max attempts per provider call including the first (0 = default)")
	flag.DurationVar(&requestTimeout, "provider.timeout", 0, "Per-request timeout for provider calls (0 = default)")
	flag.DurationVar(&sweepInterval, "sweep.interval", 0, "Periodic expired-record sweep interval (0 disables)")
	flag.StringVar(&invalidate, "invalidate", "", "Delete the remote cache with this handle instead of warming")
	flag.BoolVar(&showStats, "stats", false, "Print registry statistics after the run")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		APIKey:            providerKey,
		BaseURL:           providerBase,
		MaxAttempts:       maxAttempts,
		PerRequestTimeout: requestTimeout,
		ManifestPath:      manifestPath,
		SweepInterval:     sweepInterval,
		Verbose:           verbose,
	}

	// Precedence: flags > env > config file.
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("config file unreadable")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
		app.ApplyEnvOverrides(&cfg)
	} else {
		app.ApplyEnvToConfig(&cfg)
	}
	if cfg.Verbose && !verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := run(cfg, invalidate, showStats); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: nonzero only when no prefix could be warmed at
		// all; other errors are warnings so partial runs still succeed.
		if err == app.ErrNothingWarmed {
			os.Exit(2)
		}
		os.Exit(0)
	}
}

func run(cfg app.Config, invalidate string, showStats bool) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if invalidate != "" {
		if !a.Invalidate(ctx, invalidate) {
			return fmt.Errorf("invalidate %s failed", invalidate)
		}
		return nil
	}

	if cfg.ManifestPath == "" {
		return fmt.Errorf("no manifest given (use -manifest or CACHE_MANIFEST)")
	}
	sum, err := a.Warm(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("created", sum.Created).Int("reused", sum.Reused).Int("failed", sum.Failed).Msg("warm complete")

	if showStats {
		s := a.Stats()
		fmt.Printf("total=%d valid=%d expired=%d\n", s.Total, s.Valid, s.Expired)
		for _, fp := range s.Fingerprints {
			fmt.Println(fp)
		}
	}
	return nil
}
