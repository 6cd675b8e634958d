package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/cornelius/detect"
	"github.com/gnoswap-labs/cornelius/internal/report"
)

// flag values; only the ones set on the command line override the file
var flagCfg detect.Config

var runCmd = &cobra.Command{
	Use:   "run [subject files or directories...]",
	Short: "Analyse subject files and write their equivalence classes",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide subject files")
			os.Exit(1)
		}

		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		d, err := newDetector(cfg)
		if err != nil {
			logger.Fatal("Failed to initialize detector", zap.Error(err))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := runDetection(ctx, d, cfg, args); err != nil {
			logger.Error("Detection halted", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	addConfigFlags(runCmd.Flags())
}

func addConfigFlags(fl *pflag.FlagSet) {
	def := detect.DefaultConfig()
	fl.IntVar(&flagCfg.MaxIterations, "max-iterations", def.MaxIterations, "Maximum rewrite rounds per file (0 = unbounded)")
	fl.IntVar(&flagCfg.MaxNodes, "max-nodes", def.MaxNodes, "Maximum e-graph nodes per file (0 = unbounded)")
	fl.IntVar(&flagCfg.ExecutionTimeout, "execution-timeout", def.ExecutionTimeout, "Saturation time limit per file in seconds (0 = unbounded)")
	fl.BoolVar(&flagCfg.HaltOnError, "halt-on-error", def.HaltOnError, "Stop at the first subject file that fails")
	fl.StringVarP(&flagCfg.OutputDir, "output-dir", "o", def.OutputDir, "Directory for .equiv-class files")
	fl.StringVar(&flagCfg.RulesFile, "rules", "", "YAML rules file replacing or extending the built-in rules")
	fl.IntVarP(&flagCfg.Jobs, "jobs", "j", def.Jobs, "Subject files analysed in parallel")
	fl.IntVar(&flagCfg.MatchWorkers, "match-workers", def.MatchWorkers, "Goroutines searching rules within one saturation round")
	fl.StringVar(&flagCfg.DotDir, "dot", "", "Directory for GraphViz dumps of each saturated e-graph")
	fl.StringVar(&flagCfg.CacheDir, "cache-dir", "", "Reuse analyses of unchanged subject files stored here")
	fl.IntVar(&flagCfg.CacheMaxAge, "cache-max-age", 0, "Discard cached analyses older than this many seconds (0 = never)")
	fl.BoolVar(&flagCfg.ClearCache, "clear-cache", false, "Empty the cache before analysing")
}

// loadConfig reads the configuration file and applies the flags that were
// set explicitly.
func loadConfig(fl *pflag.FlagSet) (detect.Config, error) {
	cfg := detect.DefaultConfig()
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(detect.DefaultConfigFile); err == nil {
			path = detect.DefaultConfigFile
		}
	}
	if path != "" {
		var err error
		if cfg, err = detect.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	fl.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "max-iterations":
			cfg.MaxIterations = flagCfg.MaxIterations
		case "max-nodes":
			cfg.MaxNodes = flagCfg.MaxNodes
		case "execution-timeout":
			cfg.ExecutionTimeout = flagCfg.ExecutionTimeout
		case "halt-on-error":
			cfg.HaltOnError = flagCfg.HaltOnError
		case "output-dir":
			cfg.OutputDir = flagCfg.OutputDir
		case "rules":
			cfg.RulesFile = flagCfg.RulesFile
		case "jobs":
			cfg.Jobs = flagCfg.Jobs
		case "match-workers":
			cfg.MatchWorkers = flagCfg.MatchWorkers
		case "dot":
			cfg.DotDir = flagCfg.DotDir
		case "cache-dir":
			cfg.CacheDir = flagCfg.CacheDir
		case "cache-max-age":
			cfg.CacheMaxAge = flagCfg.CacheMaxAge
		case "clear-cache":
			cfg.ClearCache = flagCfg.ClearCache
		}
	})
	return cfg, cfg.Validate()
}

func newDetector(cfg detect.Config) (*detect.Detector, error) {
	if cfg.DotDir != "" {
		if err := os.MkdirAll(cfg.DotDir, 0o755); err != nil {
			return nil, err
		}
	}
	return detect.New(cfg, nil, logger)
}

func runDetection(ctx context.Context, d *detect.Detector, cfg detect.Config, paths []string) error {
	paths, err := detect.ExpandPaths(paths)
	if err != nil {
		return err
	}
	if err := detect.PrepareOutputDir(cfg.OutputDir); err != nil {
		return err
	}

	results, err := d.ProcessFiles(ctx, paths, os.Stderr)
	for _, r := range results {
		if r.Metrics == nil {
			continue
		}
		fmt.Printf("%s\n", r.Path)
		if r.Err != nil {
			report.PrintFailure(os.Stdout, r.Path, r.Err)
			continue
		}
		report.PrintFound(os.Stdout, r.Equivalences)
	}
	fmt.Println()
	report.PrintSummary(os.Stdout, detect.Summarize(results))
	return err
}
