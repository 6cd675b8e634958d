package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/cornelius/internal/report"
	"github.com/gnoswap-labs/cornelius/internal/rewrite"
)

var (
	rulesFile string
	rulesYAML bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rewrite rules used for saturation",
	Run: func(cmd *cobra.Command, args []string) {
		rules := rewrite.DefaultRules()
		if rulesFile != "" {
			var err error
			if rules, err = rewrite.Load(rulesFile); err != nil {
				logger.Fatal("Failed to load rules", zap.Error(err))
			}
		}

		if !rulesYAML {
			report.PrintRules(os.Stdout, rules)
			return
		}
		d, err := rewrite.Encode(rules)
		if err != nil {
			logger.Error("Error marshalling rules to YAML", zap.Error(err))
			return
		}
		fmt.Print(string(d))
	},
}

func init() {
	rulesCmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rules file to list instead of the built-in rules")
	rulesCmd.Flags().BoolVar(&rulesYAML, "yaml", false, "Print the rules as a YAML rules file")
}
