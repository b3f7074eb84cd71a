package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/healthdash/internal"
	"github.com/2beens/healthdash/internal/config"
	"github.com/2beens/healthdash/internal/logging"
	"github.com/2beens/healthdash/internal/syncer"

	log "github.com/sirupsen/logrus"
)

// sync_once runs a single sync pass against the configured stores and prints
// the summary, for cron jobs and manual backfills.
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	timeout := flag.Duration("timeout", 2*time.Minute, "max duration of the sync pass")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout:      true,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "healthdash-sync-once",
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, *timeout)
	defer timeoutCancel()

	components, err := internal.NewComponents(ctx, internal.NewServerParams{
		Config:             cfg,
		IntervalsAPIKey:    os.Getenv("INTERVALS_API_KEY"),
		IntervalsAthleteID: os.Getenv("INTERVALS_ATHLETE_ID"),
		RedisPassword:      os.Getenv("HEALTHDASH_REDIS_PASS"),
		DBPassword:         os.Getenv("HEALTHDASH_DB_PASS"),
	})
	if err != nil {
		log.Fatalf("setup: %s", err)
	}

	exitCode := run(ctx, components.SyncService)
	if err := components.Close(); err != nil {
		log.Errorf("close components: %s", err)
	}
	os.Exit(exitCode)
}

func run(ctx context.Context, service *syncer.Service) int {
	summary, err := service.Sync(ctx)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		log.Warnln("another sync is running, nothing to do")
		return 0
	}
	if err != nil {
		log.Errorf("sync failed: %s", err)
		return 1
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Errorf("marshal summary: %s", err)
		return 1
	}
	fmt.Println(string(out))

	if len(summary.FailedFeeds) > 0 {
		log.Warnf("sync finished with failed feeds: %v", summary.FailedFeeds)
	}
	return 0
}
