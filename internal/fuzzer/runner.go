// Package fuzzer turns a discovered schema into a stream of perturbed queries
// and feeds their responses to the reporter.
package fuzzer

import (
	"context"
	"sync"
	"time"

	"gqlfuzz/internal/graphql"
	"gqlfuzz/internal/logger"
	"gqlfuzz/internal/reporter"
	"gqlfuzz/internal/schema"

	"golang.org/x/sync/errgroup"
)

// Options controls the size and shape of a run.
type Options struct {
	Iterations  int
	Depth       int
	Concurrency int // Workers sending in parallel; 1 keeps the loop sequential.
	// KeepRecords retains every record in Result.Records. Without it a record
	// is dropped once the reporter has logged it.
	KeepRecords bool
	Synth       SynthOptions
}

// Result is what a run produced.
type Result struct {
	Schema  *schema.Document
	Records []reporter.Record // Completed iterations in completion order, only with KeepRecords.

	mu sync.Mutex
}

func (res *Result) keep(rec reporter.Record) {
	res.mu.Lock()
	res.Records = append(res.Records, rec)
	res.mu.Unlock()
}

// Runner drives discovery followed by the fuzz iterations.
type Runner struct {
	sender     graphql.Sender
	discoverer *schema.Discoverer
	synth      *Synthesizer
	mutator    *Mutator
	reporter   *reporter.Reporter
	log        logger.Leveled
	opts       Options
}

// NewRunner wires a Runner. The same sender carries the introspection query and the fuzz queries.
func NewRunner(sender graphql.Sender, picker Picker, rep *reporter.Reporter, log logger.Leveled, opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Runner{
		sender:     sender,
		discoverer: schema.NewDiscoverer(sender, log),
		synth:      NewSynthesizer(picker, opts.Synth),
		mutator:    NewMutator(picker),
		reporter:   rep,
		log:        log,
		opts:       opts,
	}
}

// Run discovers the schema and executes the iterations. A *schema.DiscoveryError
// means no fuzz query was sent. A *SynthesisError aborts the remaining iterations.
// Records collected before an abort or cancellation are still returned.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.log.Info("Starting schema discovery...")
	doc, err := r.discoverer.Discover(ctx)
	if err != nil {
		r.log.Error("Schema discovery failed. Exiting fuzzing process.")
		return nil, err
	}

	res := &Result{Schema: doc}
	r.log.Info("Starting fuzzing with %d iterations.", r.opts.Iterations)

	if r.opts.Concurrency == 1 {
		for i := 0; i < r.opts.Iterations; i++ {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if err := r.iterate(ctx, i, doc, res); err != nil {
				return res, err
			}
		}
		return res, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i := 0; i < r.opts.Iterations; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return r.iterate(gctx, i, doc, res)
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return res, err
}

// iterate runs one independent round.
func (r *Runner) iterate(ctx context.Context, i int, doc *schema.Document, res *Result) error {
	query, err := r.synth.Synthesize(doc, r.opts.Depth)
	if err != nil {
		r.log.Error("Iteration %d: %v", i+1, err)
		return err
	}
	r.log.Info("Generated Query %d: %s", i+1, query)

	fuzzed := r.mutator.Mutate(query)
	r.log.Info("Fuzzed Query %d: %s", i+1, fuzzed)

	start := time.Now()
	resp := r.sender.Send(ctx, fuzzed)
	rec := r.reporter.Report(fuzzed, resp, time.Since(start))
	if r.opts.KeepRecords {
		res.keep(rec)
	}
	return nil
}
