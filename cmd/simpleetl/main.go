package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/haatos/simple-etl/internal/pipeline"
	"github.com/haatos/simple-etl/internal/warehouse"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "simpleetl",
		Short:         "Quality-gated warehouse pipeline runner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var dsn string
	var scriptsDir string

	cmd := &cobra.Command{
		Use:   "run <pipeline.yml>",
		Short: "Execute a pipeline against the warehouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := pipeline.LoadPipelineSpec(args[0])
			if err != nil {
				return err
			}

			if dsn == "" {
				dsn = os.Getenv("SIMPLEETL_WAREHOUSE_DSN")
			}
			if dsn == "" {
				return fmt.Errorf("warehouse DSN is required (--dsn or SIMPLEETL_WAREHOUSE_DSN)")
			}

			pg, err := warehouse.NewPostgres(cmd.Context(), dsn)
			if err != nil {
				return fmt.Errorf("err connecting to warehouse: %w", err)
			}
			defer pg.Close()

			executor := pipeline.NewExecutor(pg, warehouse.NewDirScriptSource(scriptsDir))
			run := executor.Run(cmd.Context(), spec)

			fmt.Printf("pipeline %q run %s\n", run.Pipeline, run.ID)
			for _, line := range run.Report() {
				fmt.Println(colorizeLine(line))
			}

			if run.Status == pipeline.RunAborted {
				return fmt.Errorf("run aborted: %v", run.Cause)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "warehouse connection string")
	cmd.Flags().StringVar(&scriptsDir, "scripts", "scripts", "directory containing action SQL scripts")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pipeline.yml>",
		Short: "Validate a pipeline spec without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := pipeline.LoadPipelineSpec(args[0])
			if err != nil {
				return err
			}
			gates := 0
			for _, stage := range spec.Stages {
				if stage.Kind() == pipeline.KindQualityGate {
					gates++
				}
			}
			fmt.Printf(
				"%s pipeline %q: %d stages, %d quality gates\n",
				color.New(color.FgGreen).Sprint("OK"),
				spec.Name, len(spec.Stages), gates,
			)
			return nil
		},
	}
}

func colorizeLine(line string) string {
	switch {
	case strings.Contains(line, ": failed") || strings.Contains(line, ": error") ||
		strings.Contains(line, "run aborted"):
		return color.New(color.FgRed).Sprint(line)
	case strings.Contains(line, ": skipped") || strings.Contains(line, ": not_run"):
		return color.New(color.FgYellow).Sprint(line)
	case strings.Contains(line, ": succeeded") || strings.Contains(line, ": passed") ||
		strings.Contains(line, "run completed"):
		return color.New(color.FgGreen).Sprint(line)
	}
	return line
}
