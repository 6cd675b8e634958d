// Package detect runs the mutant equivalence analysis over subject files:
// ingest, saturate, extract, and write the results.
package detect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnoswap-labs/cornelius/internal/cache"
	"github.com/gnoswap-labs/cornelius/internal/metrics"
	"github.com/gnoswap-labs/cornelius/internal/report"
	"github.com/gnoswap-labs/cornelius/internal/rewrite"
	"github.com/gnoswap-labs/cornelius/internal/saturate"
	"github.com/gnoswap-labs/cornelius/internal/subject"
)

// FileResult is the outcome of one subject file.
type FileResult struct {
	Path         string
	Subjects     []report.SubjectResult
	Run          saturate.Report
	Equivalences int
	OutputPath   string
	DotPath      string
	Cached       bool
	Metrics      *metrics.RunMetrics
	Err          error
}

type Detector struct {
	cfg    Config
	rules  []*rewrite.Rule
	runner *saturate.Runner
	cache  *cache.Cache
	logger *zap.Logger
}

// New builds a detector. A nil rules slice selects the rule set named by
// cfg.
func New(cfg Config, rules []*rewrite.Rule, logger *zap.Logger) (*Detector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rules == nil {
		var err error
		if rules, err = cfg.RuleSet(); err != nil {
			return nil, fmt.Errorf("loading rules: %w", err)
		}
	}
	d := &Detector{
		cfg:    cfg,
		rules:  rules,
		runner: saturate.NewRunner(cfg.Saturation(), logger),
		logger: logger,
	}
	if cfg.CacheDir != "" {
		sc := cfg.Saturation()
		parts := []any{sc.IterLimit, sc.NodeLimit, sc.TimeLimit}
		for _, r := range rules {
			parts = append(parts, r)
		}
		c, err := cache.New(cfg.CacheDir, cache.Fingerprint(parts...))
		if err != nil {
			return nil, err
		}
		c.SetMaxAge(time.Duration(cfg.CacheMaxAge) * time.Second)
		logger.Debug("opened analysis cache", zap.String("dir", cfg.CacheDir), zap.Int("entries", c.Len()))
		if cfg.ClearCache {
			if err := c.InvalidateAll(); err != nil {
				return nil, fmt.Errorf("clearing cache: %w", err)
			}
		}
		d.cache = c
	}
	return d, nil
}

func (d *Detector) Rules() []*rewrite.Rule {
	return d.rules
}

// PrepareOutputDir empties dir, creating it if needed.
func PrepareOutputDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing output directory: %w", err)
	}
	return os.MkdirAll(dir, 0o755)
}

// ProcessFile analyses one subject file. Failures are reported in
// FileResult.Err; the metrics are filled in either way.
func (d *Detector) ProcessFile(ctx context.Context, path string) FileResult {
	path = strings.TrimSpace(path)
	res := FileResult{Path: path, Metrics: metrics.New()}
	logger := d.logger.With(zap.String("file", path))

	if d.cache != nil {
		if entry, ok := d.cache.Get(path); ok {
			logger.Debug("subject file unchanged, reusing cached analysis")
			return d.fromCache(res, entry)
		}
	}

	f, err := subject.Load(path)
	if err != nil {
		res.Metrics.RecordFile(0, 0)
		return d.fail(res, err)
	}
	res.Metrics.RecordFile(len(f.Subjects), f.NumMutants())

	corpus, err := subject.Build(f)
	if err != nil {
		return d.fail(res, err)
	}
	logger.Debug("ingested subject file",
		zap.Int("subjects", len(f.Subjects)),
		zap.Int("entries", len(f.Table)),
		zap.Int("classes", corpus.Graph.NumClasses()),
	)

	res.Run = d.runner.Run(ctx, corpus.Graph, d.rules)
	res.Metrics.RecordRun(res.Run)
	if res.Run.Reason == saturate.Error {
		return d.fail(res, fmt.Errorf("%s: saturation: %w", path, res.Run.Err))
	}

	for _, s := range f.Subjects {
		analysis, err := corpus.Analyze(path, s)
		if err != nil {
			return d.fail(res, err)
		}
		res.Subjects = append(res.Subjects, report.SubjectResult{Subject: s, Result: analysis})
		res.Equivalences += analysis.Score
		res.Metrics.RecordResult(analysis)
	}

	if err := d.writeOutput(&res); err != nil {
		return d.fail(res, err)
	}
	if d.cfg.DotDir != "" {
		dot := filepath.Join(d.cfg.DotDir, filepath.Base(path)+".dot")
		if err := writeDot(dot, corpus); err != nil {
			return d.fail(res, err)
		}
		res.DotPath = dot
	}

	logger.Info("analysed subject file",
		zap.Stringer("stop_reason", res.Run.Reason),
		zap.Int("iterations", res.Run.Iterations),
		zap.Int("nodes", res.Run.Nodes),
		zap.Int("equivalences", res.Equivalences),
	)

	if d.cache != nil && res.Run.Reason != saturate.TimeLimit {
		err := d.cache.Set(path, cache.Entry{
			Subjects:     res.Subjects,
			Equivalences: res.Equivalences,
			Reason:       res.Run.Reason,
			Iterations:   res.Run.Iterations,
			Nodes:        res.Run.Nodes,
		})
		if err != nil {
			logger.Warn("Failed to cache analysis", zap.Error(err))
		}
	}
	return res
}

// fromCache rebuilds a result from a cached analysis. No e-graph exists,
// so no dot file is written.
func (d *Detector) fromCache(res FileResult, entry cache.Entry) FileResult {
	mutants := 0
	for _, s := range entry.Subjects {
		mutants += len(s.Subject.Mutants)
	}
	res.Cached = true
	res.Subjects = entry.Subjects
	res.Equivalences = entry.Equivalences
	res.Run = saturate.Report{Reason: entry.Reason, Iterations: entry.Iterations, Nodes: entry.Nodes}

	res.Metrics.RecordFile(len(entry.Subjects), mutants)
	res.Metrics.RecordRun(res.Run)
	for _, sr := range res.Subjects {
		res.Metrics.RecordResult(sr.Result)
	}

	if err := d.writeOutput(&res); err != nil {
		return d.fail(res, err)
	}
	return res
}

func (d *Detector) writeOutput(res *FileResult) error {
	if d.cfg.OutputDir == "" {
		return nil
	}
	out, err := report.WriteEquivClasses(d.cfg.OutputDir, res.Path, res.Subjects)
	if err != nil {
		return err
	}
	res.OutputPath = out
	return nil
}

func (d *Detector) fail(res FileResult, err error) FileResult {
	res.Err = err
	res.Metrics.RecordFailure(res.Path)
	d.logger.Error("Error processing subject file", zap.String("file", res.Path), zap.Error(err))
	return res
}

func writeDot(path string, c *subject.Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Graph.WriteDot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ProcessFiles analyses paths with up to cfg.Jobs files in flight. Each
// file gets its own e-graph. Results come back in input order, with
// entries for files never started left without a Metrics value. With
// HaltOnError the first failure cancels the files not yet started and is
// returned.
func (d *Detector) ProcessFiles(ctx context.Context, paths []string, progress io.Writer) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	for i, p := range paths {
		results[i].Path = p
	}

	jobs := d.cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("analysing"),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return nil
			}
			results[i] = d.ProcessFile(egCtx, path)
			_ = bar.Add(1)

			if results[i].Err != nil && d.cfg.HaltOnError {
				return results[i].Err
			}
			return nil
		})
	}
	err := eg.Wait()
	_ = bar.Finish()
	fmt.Fprintln(progress)

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return results, err
}

// Summarize merges the metrics of every processed file.
func Summarize(results []FileResult) *metrics.RunMetrics {
	total := metrics.New()
	for _, r := range results {
		total.Merge(r.Metrics)
	}
	return total
}

// IsIngestionError reports whether err came from reading a subject file.
func IsIngestionError(err error) bool {
	var ie *subject.IngestionError
	return errors.As(err, &ie)
}
