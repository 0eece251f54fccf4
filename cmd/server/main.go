package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joshjon/kit/log"
	"github.com/urfave/cli/v2"

	"reviewgateway/internal/app"
	"reviewgateway/internal/reviews"
)

func main() {
	logger := log.NewLogger(log.WithDevelopment())

	cliApp := &cli.App{
		Name:  "reviewgateway",
		Usage: "caches and serves third-party app reviews",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", EnvVars: []string{"PORT"}, Value: 8080},
			&cli.StringFlag{Name: "api-prefix", EnvVars: []string{"API_PREFIX"}, Value: "/api"},
			&cli.StringSliceFlag{Name: "cors-origins", EnvVars: []string{"CORS_ORIGINS"}},
			&cli.IntFlag{Name: "polling-workers-num", EnvVars: []string{"POLLING_WORKERS_NUM"}, Value: 10},
			&cli.DurationFlag{Name: "polling-reviews-depth", EnvVars: []string{"POLLING_REVIEWS_DEPTH"}, Value: 30 * 24 * time.Hour},
			&cli.BoolFlag{Name: "scheduler-enabled", EnvVars: []string{"SCHEDULER_ENABLED"}, Value: true},
			&cli.DurationFlag{Name: "scheduler-delay", EnvVars: []string{"SCHEDULER_DELAY"}, Value: 10 * time.Second},
			&cli.StringSliceFlag{Name: "storage-initial-app-ids", EnvVars: []string{"STORAGE_INITIAL_APP_IDS"}},
			&cli.StringFlag{Name: "storage-path", EnvVars: []string{"STORAGE_PATH"}},
			&cli.StringFlag{Name: "http-external-rss-host", EnvVars: []string{"HTTP_EXTERNAL_RSS_HOST"}, Value: "https://itunes.apple.com"},
			&cli.DurationFlag{Name: "http-external-rss-timeout", EnvVars: []string{"HTTP_EXTERNAL_RSS_TIMEOUT"}, Value: 10 * time.Second},
		},
		Action: run(logger),
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func run(logger log.Logger) cli.ActionFunc {
	return func(c *cli.Context) error {
		appIDs, err := parseAppIDs(c.StringSlice("storage-initial-app-ids"))
		if err != nil {
			return fmt.Errorf("parse storage-initial-app-ids: %w", err)
		}

		cfg := app.Config{
			Port:                   c.Int("port"),
			APIPrefix:              c.String("api-prefix"),
			CorsOrigins:            c.StringSlice("cors-origins"),
			PollingWorkersNum:      c.Int("polling-workers-num"),
			PollingReviewsDepth:    c.Duration("polling-reviews-depth"),
			SchedulerEnabled:       c.Bool("scheduler-enabled"),
			SchedulerDelay:         c.Duration("scheduler-delay"),
			StorageInitialAppIDs:   appIDs,
			StoragePath:            c.String("storage-path"),
			HTTPExternalRSSHost:    c.String("http-external-rss-host"),
			HTTPExternalRSSTimeout: c.Duration("http-external-rss-timeout"),
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return app.Run(ctx, logger, cfg)
	}
}

func parseAppIDs(raw []string) ([]reviews.AppID, error) {
	ids := make([]reviews.AppID, 0, len(raw))
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := reviews.ParseAppID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
