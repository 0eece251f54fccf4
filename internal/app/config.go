package app

import (
	"time"

	"github.com/cohesivestack/valgo"

	"reviewgateway/internal/reviews"
)

// Config holds the gateway's full runtime configuration (spec §6).
type Config struct {
	Port        int
	APIPrefix   string
	CorsOrigins []string

	// PollingWorkersNum is the size of the worker pool.
	PollingWorkersNum int
	// PollingReviewsDepth is the freshness window bounding pagination
	// (spec §4.3's stopping rule 3).
	PollingReviewsDepth time.Duration

	// SchedulerEnabled gates the periodic refresh loop (spec §4.4).
	SchedulerEnabled bool
	// SchedulerDelay is the fixed sleep between refresh cycles.
	SchedulerDelay time.Duration

	// StorageInitialAppIDs seeds the store on first boot so there is
	// something for the scheduler to refresh before any request arrives.
	StorageInitialAppIDs []reviews.AppID
	// StoragePath selects the file-backed store; empty uses an
	// in-memory store that does not survive a restart.
	StoragePath string

	// HTTPExternalRSSHost is the upstream iTunes RSS host.
	HTTPExternalRSSHost string
	// HTTPExternalRSSTimeout bounds each upstream page request.
	HTTPExternalRSSTimeout time.Duration
}

// Validate checks the configuration is internally consistent, failing
// fast on obviously broken input before anything is wired up.
func (c Config) Validate() error {
	v := valgo.Is(
		valgo.Number(c.Port, "port").GreaterThan(0),
		valgo.Number(c.PollingWorkersNum, "polling_workers_num").GreaterThan(0),
		valgo.Number(int64(c.PollingReviewsDepth), "polling_reviews_depth").GreaterThan(0),
		valgo.String(c.HTTPExternalRSSHost, "http_external_rss_host").Not().Blank(),
		valgo.Number(int64(c.HTTPExternalRSSTimeout), "http_external_rss_timeout").GreaterThan(0),
	)
	if c.SchedulerEnabled {
		v.Is(valgo.Number(int64(c.SchedulerDelay), "scheduler_delay").GreaterThan(0))
	}
	if !v.Valid() {
		return v.Error()
	}
	return nil
}
