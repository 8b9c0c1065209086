package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// CycleFunc is one maintenance cycle body.
type CycleFunc func(ctx context.Context) error

// cycle is one recurring maintenance loop. The run-lock serializes bodies of
// the same cycle: if a tick fires while the previous body is still running,
// the tick is skipped and counted, never queued.
type cycle struct {
	name     string
	interval time.Duration
	run      CycleFunc
	lock     sync.Mutex
}

// Scheduler drives the recurring maintenance cycles. All cycles run in-process
// on goroutine tickers; there is no external scheduler and no persistence of
// cycle state.
type Scheduler struct {
	logger zerolog.Logger
	cycles []*cycle

	cancel context.CancelFunc
	wg     sync.WaitGroup

	runsTotal  *prometheus.CounterVec
	skipsTotal *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func NewScheduler(logger zerolog.Logger, reg prometheus.Registerer) *Scheduler {
	metrics := promauto.With(reg)
	return &Scheduler{
		logger: logger.With().Str("component", "maintenance-scheduler").Logger(),
		runsTotal: metrics.NewCounterVec(prometheus.CounterOpts{
			Name: "maintenance_cycle_runs_total",
			Help: "Completed cycle runs by cycle and result",
		}, []string{"cycle", "result"}),
		skipsTotal: metrics.NewCounterVec(prometheus.CounterOpts{
			Name: "maintenance_cycle_skips_total",
			Help: "Ticks skipped because the previous run was still in flight",
		}, []string{"cycle"}),
		duration: metrics.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maintenance_cycle_duration_seconds",
			Help:    "Cycle body duration",
			Buckets: prometheus.ExponentialBuckets(0.1, 3, 8),
		}, []string{"cycle"}),
	}
}

// AddCycle registers a recurring cycle. Must be called before Start.
func (s *Scheduler) AddCycle(name string, interval time.Duration, run CycleFunc) {
	s.cycles = append(s.cycles, &cycle{name: name, interval: interval, run: run})
}

// Start launches one ticker goroutine per cycle. Each cycle also runs once
// shortly after start so a fresh process converges without waiting a full
// interval.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, c := range s.cycles {
		s.wg.Add(1)
		go s.runLoop(ctx, c)
		s.logger.Info().Str("cycle", c.name).Dur("interval", c.interval).Msg("cycle started")
	}
}

// Stop halts future ticks and waits for in-flight bodies to finish. A running
// cycle body is never interrupted mid-flight; cancellation only stops the
// tick loops.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info().Msg("all cycles stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, c *cycle) {
	defer s.wg.Done()

	// Initial run staggered slightly so all cycles don't hit the store at once.
	initial := time.NewTimer(c.interval / 10)
	defer initial.Stop()
	select {
	case <-ctx.Done():
		return
	case <-initial.C:
		s.runOnce(ctx, c)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, c)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, c *cycle) {
	if !c.lock.TryLock() {
		s.skipsTotal.WithLabelValues(c.name).Inc()
		s.logger.Warn().Str("cycle", c.name).Msg("previous run still in flight, tick skipped")
		return
	}
	defer c.lock.Unlock()

	start := time.Now()
	// Cancellation stops future ticks only; a body already running keeps an
	// intact context so its store and HTTP calls finish on their own terms.
	err := c.run(context.WithoutCancel(ctx))
	s.duration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	if err != nil {
		s.runsTotal.WithLabelValues(c.name, "error").Inc()
		s.logger.Error().Err(err).Str("cycle", c.name).Msg("cycle run failed")
		return
	}
	s.runsTotal.WithLabelValues(c.name, "ok").Inc()
	s.logger.Debug().Str("cycle", c.name).Dur("took", time.Since(start)).Msg("cycle run done")
}
