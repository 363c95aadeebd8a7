package metrics

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Stats is a snapshot of the back office state
type Stats struct {
	TemplateVersions int
	Customers        int
	EmailsByStatus   map[string]int
}

// StatsProvider provides the state gauges are set from
type StatsProvider interface {
	Stats(ctx context.Context) (Stats, error)
}

// Collector periodically refreshes gauges
type Collector struct {
	metrics   *Metrics
	stats     StatsProvider
	interval  time.Duration
	logger    *slog.Logger
	startTime time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCollector creates a new collector. stats may be nil.
func NewCollector(m *Metrics, stats StatsProvider, interval time.Duration, logger *slog.Logger) *Collector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Collector{
		metrics:   m,
		stats:     stats,
		interval:  interval,
		logger:    logger,
		startTime: time.Now(),
		stopCh:    make(chan struct{}),
	}
}

// Start starts the background collection goroutine
func (c *Collector) Start(ctx context.Context) {
	c.Collect(ctx)

	c.wg.Add(1)
	go c.loop(ctx)
}

// Stop stops the collector and waits for it to finish
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Collector) loop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.Collect(ctx)
		}
	}
}

// Collect updates all gauges once
func (c *Collector) Collect(ctx context.Context) {
	c.metrics.UptimeSeconds.Set(time.Since(c.startTime).Seconds())
	c.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))

	if c.stats == nil {
		return
	}

	stats, err := c.stats.Stats(ctx)
	if err != nil {
		c.logger.Warn("failed to collect stats", "error", err)
		return
	}

	c.metrics.TemplateVersions.Set(float64(stats.TemplateVersions))
	c.metrics.Customers.Set(float64(stats.Customers))
	c.metrics.EmailsStored.Reset()
	for status, n := range stats.EmailsByStatus {
		c.metrics.EmailsStored.WithLabelValues(status).Set(float64(n))
	}
}
