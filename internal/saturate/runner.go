// Package saturate drives equality saturation: rounds of searching every
// rule against a consistent graph, applying all matches, and rebuilding,
// until nothing changes or a bound is hit.
package saturate

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnoswap-labs/cornelius/internal/egraph"
	"github.com/gnoswap-labs/cornelius/internal/rewrite"
)

// Iteration records one round.
type Iteration struct {
	Index   int
	Matches int
	Applied int // unions made by rule applications
	Rebuilt int // unions made restoring congruence
	Nodes   int
	Classes int
	Elapsed time.Duration
}

// Report describes a finished run. Err is set only when Reason is Error.
type Report struct {
	Reason     StopReason
	Iterations int
	Nodes      int
	Classes    int
	Elapsed    time.Duration
	Rounds     []Iteration
	Err        error
}

type Runner struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func NewRunner(cfg Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, logger: logger, now: time.Now}
}

// Run saturates g with rules. Bounds and ctx are checked only between
// rounds. Iterations counts the rounds that changed the graph.
func (r *Runner) Run(ctx context.Context, g *egraph.EGraph, rules []*rewrite.Rule) Report {
	start := r.now()
	var rep Report

	g.Rebuild()
	if err := g.Err(); err != nil {
		return r.finish(g, rep, start, Error, err)
	}

	for {
		if reason, stop, err := r.bounded(ctx, g, start, rep.Iterations); stop {
			return r.finish(g, rep, start, reason, err)
		}

		before := g.Version()
		roundStart := r.now()

		found := r.search(g, rules)

		round := Iteration{Index: len(rep.Rounds) + 1}
		for i, rule := range rules {
			round.Matches += len(found[i])
			n, err := rule.Apply(g, found[i])
			round.Applied += n
			if err != nil {
				rep.Rounds = append(rep.Rounds, round)
				return r.finish(g, rep, start, Error, err)
			}
		}
		round.Rebuilt = g.Rebuild()
		round.Nodes = g.NumNodes()
		round.Classes = g.NumClasses()
		round.Elapsed = r.now().Sub(roundStart)
		rep.Rounds = append(rep.Rounds, round)

		r.logger.Debug("saturation round",
			zap.Int("round", round.Index),
			zap.Int("matches", round.Matches),
			zap.Int("applied", round.Applied),
			zap.Int("rebuilt", round.Rebuilt),
			zap.Int("nodes", round.Nodes),
			zap.Int("classes", round.Classes),
			zap.Duration("elapsed", round.Elapsed),
		)

		if err := g.Err(); err != nil {
			return r.finish(g, rep, start, Error, err)
		}
		if g.Version() == before {
			return r.finish(g, rep, start, Saturated, nil)
		}
		rep.Iterations++
		if r.cfg.IterLimit.Reached(rep.Iterations) {
			return r.finish(g, rep, start, IterationLimit, nil)
		}
	}
}

// bounded checks the limits that are evaluated before a round starts.
func (r *Runner) bounded(ctx context.Context, g *egraph.EGraph, start time.Time, iterations int) (StopReason, bool, error) {
	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		return TimeLimit, true, nil
	case err != nil:
		return Error, true, err
	}
	if r.cfg.IterLimit.Reached(iterations) {
		return IterationLimit, true, nil
	}
	if r.cfg.NodeLimit.Exceeded(g.NumNodes()) {
		return NodeLimit, true, nil
	}
	if r.cfg.TimeLimit > 0 && r.now().Sub(start) >= r.cfg.TimeLimit {
		return TimeLimit, true, nil
	}
	return 0, false, nil
}

// search collects the matches of every rule against the current graph.
// The graph is not modified until every search has returned.
func (r *Runner) search(g *egraph.EGraph, rules []*rewrite.Rule) [][]rewrite.Match {
	found := make([][]rewrite.Match, len(rules))
	if r.cfg.Workers < 2 || len(rules) < 2 {
		for i, rule := range rules {
			found[i] = rule.Search(g)
		}
		return found
	}

	var eg errgroup.Group
	eg.SetLimit(r.cfg.Workers)
	for i, rule := range rules {
		i, rule := i, rule
		eg.Go(func() error {
			found[i] = rule.Search(g)
			return nil
		})
	}
	_ = eg.Wait()
	return found
}

func (r *Runner) finish(g *egraph.EGraph, rep Report, start time.Time, reason StopReason, err error) Report {
	rep.Reason = reason
	rep.Err = err
	rep.Nodes = g.NumNodes()
	rep.Classes = g.NumClasses()
	rep.Elapsed = r.now().Sub(start)

	fields := []zap.Field{
		zap.Stringer("reason", reason),
		zap.Int("iterations", rep.Iterations),
		zap.Int("nodes", rep.Nodes),
		zap.Int("classes", rep.Classes),
		zap.Duration("elapsed", rep.Elapsed),
	}
	if err != nil {
		r.logger.Warn("saturation failed", append(fields, zap.Error(err))...)
		return rep
	}
	r.logger.Debug("saturation stopped", fields...)
	return rep
}
