package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned when a query cannot be admitted.
var ErrUnavailable = errors.New("resource: capacity exhausted")

// Config holds resource limits.
type Config struct {
	// MaxInFlight is the number of queries answered concurrently.
	// If 0, queries are not limited.
	MaxInFlight int64

	// MaxQueued is the number of queries allowed to wait for a slot once
	// MaxInFlight is reached. Queries beyond it are rejected.
	MaxQueued int64

	// QueriesPerSec rate-limits admission. If 0, unlimited.
	QueriesPerSec float64
	// QueryBurst defaults to max(1, QueriesPerSec).
	QueryBurst int

	// MaxConcurrentBuilds is the number of index builds that may run at once.
	// If 0, defaults to 1.
	MaxConcurrentBuilds int64

	// IOLimitBytesPerSec is the maximum throughput for dump reads.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages admission for queries and builds.
type Controller struct {
	cfg Config

	// Queries
	querySem     *semaphore.Weighted // nil if unlimited
	queryLimiter *rate.Limiter
	inFlight     atomic.Int64
	queued       atomic.Int64

	// Builds
	buildSem *semaphore.Weighted

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentBuilds <= 0 {
		cfg.MaxConcurrentBuilds = 1
	}

	c := &Controller{
		cfg:      cfg,
		buildSem: semaphore.NewWeighted(cfg.MaxConcurrentBuilds),
	}

	if cfg.MaxInFlight > 0 {
		c.querySem = semaphore.NewWeighted(cfg.MaxInFlight)
	}

	if cfg.QueriesPerSec > 0 {
		burst := cfg.QueryBurst
		if burst <= 0 {
			burst = max(1, int(cfg.QueriesPerSec))
		}
		c.queryLimiter = rate.NewLimiter(rate.Limit(cfg.QueriesPerSec), burst)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireQuery admits one query. It fails fast with ErrUnavailable when the
// rate limit is exhausted or the wait queue is full, and otherwise blocks
// until a slot frees up or ctx is canceled. The returned release must be
// called exactly once.
func (c *Controller) AcquireQuery(ctx context.Context) (release func(), err error) {
	if c == nil {
		return func() {}, nil
	}
	if c.queryLimiter != nil && !c.queryLimiter.Allow() {
		return nil, ErrUnavailable
	}

	if c.querySem != nil && !c.querySem.TryAcquire(1) {
		if c.queued.Add(1) > c.cfg.MaxQueued {
			c.queued.Add(-1)
			return nil, ErrUnavailable
		}
		err := c.querySem.Acquire(ctx, 1)
		c.queued.Add(-1)
		if err != nil {
			return nil, err
		}
	}

	c.inFlight.Add(1)
	var once atomic.Bool
	return func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		c.inFlight.Add(-1)
		if c.querySem != nil {
			c.querySem.Release(1)
		}
	}, nil
}

// InFlight returns the number of admitted queries that have not been released.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// Queued returns the number of queries waiting for a slot.
func (c *Controller) Queued() int64 {
	if c == nil {
		return 0
	}
	return c.queued.Load()
}

// AcquireBuild reserves a build slot.
// Blocks if all slots are busy.
func (c *Controller) AcquireBuild(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.buildSem.Acquire(ctx, 1)
}

// TryAcquireBuild attempts to reserve a build slot without blocking.
func (c *Controller) TryAcquireBuild() bool {
	if c == nil {
		return true
	}
	return c.buildSem.TryAcquire(1)
}

// ReleaseBuild releases a build slot.
func (c *Controller) ReleaseBuild() {
	if c == nil {
		return
	}
	c.buildSem.Release(1)
}

// LimitsIO reports whether reads are throttled.
func (c *Controller) LimitsIO() bool {
	return c != nil && c.ioLimiter != nil
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// bytes must not exceed the limiter burst; RateLimitedReader splits reads.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}

func (c *Controller) ioBurst() int {
	if c == nil || c.ioLimiter == nil {
		return 0
	}
	return c.ioLimiter.Burst()
}
