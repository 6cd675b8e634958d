package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/cornelius/detect"
	"github.com/gnoswap-labs/cornelius/internal/report"
)

var watchCmd = &cobra.Command{
	Use:   "watch [subject files or directories...]",
	Short: "Re-analyse subject files whenever they change",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide subject files or directories")
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
		if cfg.OutputDir != "" {
			if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
				logger.Fatal("Failed to create output directory", zap.Error(err))
			}
		}

		w, err := d.NewWatcher(args)
		if err != nil {
			logger.Fatal("Failed to start watching", zap.Error(err))
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Println("watching for changes, press Ctrl+C to stop")
		err = w.Run(ctx, func(r detect.FileResult) {
			fmt.Printf("%s\n", r.Path)
			if r.Err != nil {
				report.PrintFailure(os.Stdout, r.Path, r.Err)
				return
			}
			report.PrintFound(os.Stdout, r.Equivalences)
		})
		if err != nil {
			logger.Error("Watch stopped", zap.Error(err))
		}
	},
}

func init() {
	addConfigFlags(watchCmd.Flags())
}
