package runner

import (
	"context"
	"time"

	"github.com/bioperf/varbench/pkg/drivers"
	log "github.com/bioperf/varbench/pkg/logging"
	result "github.com/bioperf/varbench/pkg/results"
	"github.com/bioperf/varbench/pkg/sample"
	"github.com/bioperf/varbench/pkg/workload"
)

// Thunk is a query invocation with database and arguments already bound.
type Thunk func() (int, error)

// Runner drives workloads against databases, one invocation at a time.
// Queries are never run concurrently: parallel invocations would contend for
// database caches and distort the very latencies this harness measures.
type Runner struct {
	Iterations int
	Warmup     int
	// Report receives the summary of each finished (database, query) pair.
	// Nil disables per-query reporting.
	Report func(result.Summary)
}

// New returns a Runner with console reporting.
func New(iterations, warmup int) *Runner {
	return &Runner{
		Iterations: iterations,
		Warmup:     warmup,
		Report:     result.ShowQueryResult,
	}
}

// Measure invokes fn exactly once and reports the elapsed wall time in
// milliseconds together with the row count. time.Since reads the monotonic
// clock, so wall-clock adjustments between start and stop cannot skew the
// reading. A failed invocation propagates unmeasured.
func Measure(fn Thunk) (float64, int, error) {
	start := time.Now()
	rows, err := fn()
	elapsed := time.Since(start)
	if err != nil {
		return 0, 0, err
	}
	return float64(elapsed) / float64(time.Millisecond), rows, nil
}

// warmup primes database caches by running the invocation count times and
// discarding the outcomes. Failures are reported and never abort anything.
func (r *Runner) warmup(ctx context.Context, d drivers.Driver, op workload.Operation) {
	if r.Warmup < 1 {
		return
	}
	log.Debugf("Warmup: %d iterations", r.Warmup)
	for i := 0; i < r.Warmup; i++ {
		if _, err := op.Invoke(ctx, d); err != nil {
			log.Warnf("😥 Warmup error in %s - %s iteration %d/%d: %v", d.Name(), op.ID, i+1, r.Warmup, err)
		}
	}
}

// runMeasured executes the bound invocation Iterations times sequentially,
// one Sample per success. A failing iteration is reported, contributes no
// Sample, and the remaining iterations still run.
func (r *Runner) runMeasured(ctx context.Context, d drivers.Driver, op workload.Operation) []sample.Sample {
	samples := make([]sample.Sample, 0, r.Iterations)
	for i := 0; i < r.Iterations; i++ {
		elapsed, rows, err := Measure(func() (int, error) {
			return op.Invoke(ctx, d)
		})
		if err != nil {
			log.Errorf("❌ Error in %s - %s iteration %d/%d: %v", d.Name(), op.ID, i+1, r.Iterations, err)
			continue
		}
		samples = append(samples, sample.Sample{
			Database:       d.Name(),
			QueryType:      op.ID,
			ResponseTimeMs: elapsed,
			RowsReturned:   rows,
			CacheState:     sample.CacheWarm,
			Timestamp:      time.Now(),
		})
	}
	return samples
}

func (r *Runner) report(s result.Summary) {
	if r.Report != nil {
		r.Report(s)
	}
}

// Run drives every operation against every database in the order given and
// returns all measured Samples in capture order. A database that cannot
// connect is skipped whole; a query that keeps failing costs nothing but its
// own samples. Run only ever returns fewer samples than asked for, never an
// error.
func (r *Runner) Run(ctx context.Context, dbs []drivers.Driver, ops []workload.Operation) []sample.Sample {
	var all []sample.Sample
	for _, d := range dbs {
		log.Infof("=========== Benchmarking %s ===========", d.Name())
		if err := d.Connect(ctx); err != nil {
			log.Errorf("❌ Skipping %s: %v", d.Name(), err)
			continue
		}
		log.Infof("🔌 Connected to %s", d.Name())
		for _, op := range ops {
			log.Infof("🗒️  Running %s %s : %s ", d.Name(), op.ID, op.Description)
			r.warmup(ctx, d, op)
			samples := r.runMeasured(ctx, d, op)
			all = append(all, samples...)
			s := result.Summarize(samples)
			if s.NoData {
				s.Database = d.Name()
				s.QueryType = op.ID
			}
			r.report(s)
		}
		if err := d.Disconnect(); err != nil {
			log.Errorf("Error disconnecting from %s: %v", d.Name(), err)
		}
	}
	return all
}
