// Package line implements the production-line run controller: it owns
// the global timestep counter and the running flag, spawns the producer
// and consumer workers, polls for completion, and orchestrates the
// cooperative shutdown.
//
// Lock discipline: the buffer contents, the timestep counter, and the
// statistics accumulator live behind three independent locks, and a
// worker never holds two of them at once.
package line

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360/prodline/buffer"
	"github.com/c360/prodline/config"
	"github.com/c360/prodline/errors"
	"github.com/c360/prodline/metric"
	"github.com/c360/prodline/report"
	"github.com/c360/prodline/stats"
)

// Line is one simulation run: the shared buffer, the worker pool, and
// the run state. A Line is single-use; build a new one for every run.
type Line struct {
	cfg    *config.Config
	buf    *buffer.Bounded
	stats  *stats.Collector
	logger *slog.Logger
	runID  string

	// Global timestep counter, its own lock region.
	tsMu            sync.Mutex
	currentTimestep int64

	// running starts true and flips to false exactly once at shutdown.
	running atomic.Bool

	stateMu sync.Mutex
	state   State

	wg        sync.WaitGroup
	startTime time.Time
	endTime   time.Time

	metrics *metric.Metrics
}

// New builds a production line from the configuration. The configuration
// is validated first; reduced-scale runs must opt out explicitly via
// SkipValidation.
func New(cfg *config.Config, options ...Option) (*Line, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Line", "New", "nil config")
	}
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := applyOptions(options...)
	if opts.runID == "" {
		opts.runID = uuid.NewString()
	}

	bufOpts := []buffer.Option{}
	if opts.metricsReg != nil {
		bufOpts = append(bufOpts, buffer.WithMetrics(opts.metricsReg, opts.bufferLabel))
	}
	buf, err := buffer.New(cfg.BufferCapacity, bufOpts...)
	if err != nil {
		return nil, err
	}

	l := &Line{
		cfg:    cfg,
		buf:    buf,
		stats:  stats.NewCollector(cfg.TotalTimesteps),
		logger: opts.logger.With("run_id", opts.runID),
		runID:  opts.runID,
		state:  StateCreated,
	}
	if opts.metricsReg != nil {
		l.metrics = opts.metricsReg.CoreMetrics()
	}
	l.running.Store(true)
	return l, nil
}

// RunID returns the unique identifier of this run.
func (l *Line) RunID() string {
	return l.runID
}

// Buffer exposes the shared buffer for post-run inspection.
func (l *Line) Buffer() *buffer.Bounded {
	return l.buf
}

// Stats exposes the statistics collector.
func (l *Line) Stats() *stats.Collector {
	return l.stats
}

// State returns the current lifecycle state.
func (l *Line) State() State {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.state
}

// CurrentTimestep returns the global timestep under its lock.
func (l *Line) CurrentTimestep() int64 {
	l.tsMu.Lock()
	defer l.tsMu.Unlock()
	return l.currentTimestep
}

// nextTimestep claims the next timestep value. It refuses to advance
// past the configured total, so the counter is bounded above by
// TotalTimesteps at every observation point.
func (l *Line) nextTimestep() (int64, bool) {
	l.tsMu.Lock()
	defer l.tsMu.Unlock()

	if l.currentTimestep >= l.cfg.TotalTimesteps {
		return l.currentTimestep, false
	}
	l.currentTimestep++
	if l.metrics != nil {
		l.metrics.CurrentTimestep.Set(float64(l.currentTimestep))
	}
	return l.currentTimestep, true
}

// shouldContinue is the worker loop condition: the run is live and the
// timestep budget is not exhausted.
func (l *Line) shouldContinue() bool {
	return l.running.Load() && l.CurrentTimestep() < l.cfg.TotalTimesteps
}

// Start spawns the producer and consumer workers. They begin executing
// immediately and concurrently; Start does not wait for them.
func (l *Line) Start(ctx context.Context) error {
	l.stateMu.Lock()
	if l.state != StateCreated {
		l.stateMu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Line", "Start", "start line")
	}
	l.state = StateRunning
	l.startTime = time.Now()
	l.stateMu.Unlock()

	if l.metrics != nil {
		l.metrics.RunStatus.Set(metric.RunStatusRunning)
	}

	l.logger.Info("starting production line",
		"buffer_capacity", l.cfg.BufferCapacity,
		"producers", l.cfg.NumProducers,
		"consumers", l.cfg.NumConsumers,
		"total_timesteps", l.cfg.TotalTimesteps)

	l.wg.Add(l.cfg.NumProducers + l.cfg.NumConsumers)
	for i := 0; i < l.cfg.NumProducers; i++ {
		go l.producerLoop(ctx, i)
	}
	for i := 0; i < l.cfg.NumConsumers; i++ {
		go l.consumerLoop(ctx)
	}

	return nil
}

// producerLoop is one producer worker: wait for a free slot, re-check
// the run condition after waking, claim a timestep, append the unit,
// signal the consumer side, throttle, repeat.
func (l *Line) producerLoop(ctx context.Context, id int) {
	defer l.wg.Done()

	for l.shouldContinue() && ctx.Err() == nil {
		if waited := l.buf.AcquireSlot(); waited {
			l.recordProducerWait()
		}

		// Shutdown may have happened while parked. Hand the permit back
		// so the forced-release accounting stays balanced.
		if !l.shouldContinue() || ctx.Err() != nil {
			l.buf.SignalSlot()
			break
		}

		ts, ok := l.nextTimestep()
		if !ok {
			l.buf.SignalSlot()
			break
		}

		unit := buffer.Unit{Producer: id, Timestep: ts}
		outcome, occupancy := l.buf.TryProduce(unit)
		switch outcome {
		case buffer.Accepted:
			l.stats.RecordProduced(ts, occupancy)
			if l.metrics != nil {
				l.metrics.UnitsProduced.Inc()
				l.metrics.BufferOccupancy.Set(float64(occupancy))
				l.metrics.BufferUtilization.Set(float64(occupancy) / float64(l.cfg.BufferCapacity))
			}
		case buffer.RejectedFull:
			// Defensive branch; should not occur under correct signal
			// discipline outside the shutdown window.
			l.recordProducerWait()
		}

		// The counterpart signal is unconditional, matching the legacy
		// controller. See the buffer package doc.
		l.buf.SignalItem()

		l.throttle()
	}
}

// consumerLoop is one consumer worker, symmetric to producerLoop.
// Consumers are anonymous: unlike producers, they leave no mark on the
// units they remove.
func (l *Line) consumerLoop(ctx context.Context) {
	defer l.wg.Done()

	for l.shouldContinue() && ctx.Err() == nil {
		if waited := l.buf.AcquireItem(); waited {
			l.recordConsumerWait()
		}

		if !l.shouldContinue() || ctx.Err() != nil {
			l.buf.SignalItem()
			break
		}

		_, outcome, occupancy := l.buf.TryConsume()
		switch outcome {
		case buffer.Consumed:
			l.stats.RecordConsumed()
			if l.metrics != nil {
				l.metrics.UnitsConsumed.Inc()
				l.metrics.BufferOccupancy.Set(float64(occupancy))
				l.metrics.BufferUtilization.Set(float64(occupancy) / float64(l.cfg.BufferCapacity))
			}
		case buffer.RejectedEmpty:
			l.recordConsumerWait()
		}

		l.buf.SignalSlot()

		l.throttle()
	}
}

// A wait is any time a worker could not make immediate progress: a
// blocked semaphore acquire or a defensive rejection inside the
// critical section. Both feed the same counter; the buffer's
// rejected_full/rejected_empty metrics isolate the defensive share.
func (l *Line) recordProducerWait() {
	l.stats.RecordProducerWait()
	if l.metrics != nil {
		l.metrics.ProducerWaits.Inc()
	}
}

func (l *Line) recordConsumerWait() {
	l.stats.RecordConsumerWait()
	if l.metrics != nil {
		l.metrics.ConsumerWaits.Inc()
	}
}

// throttle sleeps a randomized delay modeling per-unit processing
// latency.
func (l *Line) throttle() {
	min, max := l.cfg.ThrottleMin, l.cfg.ThrottleMax
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	time.Sleep(d)
}

// WaitCompletion polls until the timestep budget is exhausted or the
// context is cancelled, then performs the coordinated shutdown: flip
// the running flag once, force-release both semaphores (one release per
// worker, so every parked worker wakes at least once), and join the
// workers with a bounded timeout. A join timeout is logged and
// absorbed; the run still reports the statistics observed at that
// point.
func (l *Line) WaitCompletion(ctx context.Context) error {
	if l.State() == StateCreated {
		return errors.WrapInvalid(errors.ErrNotStarted, "Line", "WaitCompletion", "wait for run")
	}

poll:
	for l.CurrentTimestep() < l.cfg.TotalTimesteps {
		select {
		case <-ctx.Done():
			l.logger.Info("run interrupted, shutting down early",
				"timestep", l.CurrentTimestep(),
				"reason", ctx.Err())
			break poll
		case <-time.After(l.cfg.PollInterval):
		}
	}

	l.running.Store(false)
	l.buf.ForceRelease(l.cfg.NumProducers, l.cfg.NumConsumers)

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(l.cfg.JoinTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		// Best-effort: abandon stragglers, keep the statistics we have.
		l.logger.Warn("worker join timeout, abandoning stragglers",
			"timeout", l.cfg.JoinTimeout,
			"error", errors.ErrJoinTimeout)
	}

	l.stateMu.Lock()
	l.state = StateStopped
	l.endTime = time.Now()
	l.stateMu.Unlock()

	if l.metrics != nil {
		l.metrics.RunStatus.Set(metric.RunStatusStopped)
	}

	summary := l.stats.Summary()
	l.logger.Info("production line completed",
		"timesteps", l.CurrentTimestep(),
		"produced", summary.TotalProduced,
		"consumed", summary.TotalConsumed,
		"remaining", l.buf.Size(),
		"elapsed", l.endTime.Sub(l.startTime).String())

	return nil
}

// Run is the convenience wrapper: Start then WaitCompletion.
func (l *Line) Run(ctx context.Context) error {
	if err := l.Start(ctx); err != nil {
		return err
	}
	return l.WaitCompletion(ctx)
}

// Elapsed returns the wall-clock duration of the run, zero until the
// run has stopped.
func (l *Line) Elapsed() time.Duration {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if l.endTime.IsZero() {
		return 0
	}
	return l.endTime.Sub(l.startTime)
}

// Report builds the final run report from the statistics and the buffer
// state. Call it after WaitCompletion.
func (l *Line) Report() *report.Report {
	summary := l.stats.Summary()
	remaining := l.buf.Size()

	return &report.Report{
		RunID:       l.runID,
		GeneratedAt: time.Now().UTC(),
		Config: report.Configuration{
			BufferCapacity: l.cfg.BufferCapacity,
			NumProducers:   l.cfg.NumProducers,
			NumConsumers:   l.cfg.NumConsumers,
			TotalTimesteps: l.cfg.TotalTimesteps,
		},
		Results: report.Results{
			TotalProduced:     summary.TotalProduced,
			TotalConsumed:     summary.TotalConsumed,
			RemainingInBuffer: remaining,
			ProducerWaits:     summary.ProducerWaits,
			ConsumerWaits:     summary.ConsumerWaits,
		},
		Performance: report.NewPerformance(summary.TotalProduced, summary.TotalConsumed, l.Elapsed()),
		Snapshots:   summary.Snapshots,
	}
}

// Progress is a live, read-only view of a run for observers such as the
// websocket gateway. It touches only the stats lock and the buffer size.
type Progress struct {
	RunID           string `json:"run_id"`
	State           string `json:"state"`
	Timestep        int64  `json:"timestep"`
	TotalTimesteps  int64  `json:"total_timesteps"`
	Produced        int64  `json:"produced"`
	Consumed        int64  `json:"consumed"`
	ProducerWaits   int64  `json:"producer_waits"`
	ConsumerWaits   int64  `json:"consumer_waits"`
	BufferOccupancy int    `json:"buffer_occupancy"`
	BufferCapacity  int    `json:"buffer_capacity"`
}

// Progress returns a point-in-time view of the run.
func (l *Line) Progress() Progress {
	summary := l.stats.Summary()
	return Progress{
		RunID:           l.runID,
		State:           l.State().String(),
		Timestep:        l.CurrentTimestep(),
		TotalTimesteps:  l.cfg.TotalTimesteps,
		Produced:        summary.TotalProduced,
		Consumed:        summary.TotalConsumed,
		ProducerWaits:   summary.ProducerWaits,
		ConsumerWaits:   summary.ConsumerWaits,
		BufferOccupancy: l.buf.Size(),
		BufferCapacity:  l.cfg.BufferCapacity,
	}
}

// String implements fmt.Stringer for log-friendly output.
func (l *Line) String() string {
	return fmt.Sprintf("line(%s, %s)", l.runID, l.State())
}
