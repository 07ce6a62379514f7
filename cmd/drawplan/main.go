package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/drawplan/drawplan/internal/config"
	"github.com/drawplan/drawplan/internal/domain"
	"github.com/drawplan/drawplan/internal/output"
	"github.com/drawplan/drawplan/internal/planner"
	"github.com/drawplan/drawplan/internal/tui"
)

// simpleCLILogger implements solve.Logger using the standard log package
type simpleCLILogger struct {
	verbose bool
}

func (l simpleCLILogger) Debugf(format string, args ...any) {
	if l.verbose {
		log.Printf("DEBUG: "+format, args...)
	}
}
func (l simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (l simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (l simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "drawplan",
	Short: "Retirement drawdown optimizer",
	Long:  "Computes an optimal multi-year withdrawal and Roth-conversion schedule across taxable, IRA, and Roth accounts.",
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "drawplan %s (commit %s, built %s)\n", version, commit, date)
			if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
				fmt.Fprintln(os.Stdout, bi.Main.Version)
			}
		},
	}
}

func planCmd() *cobra.Command {
	var (
		format        string
		spend         float64
		rothTarget    float64
		timeLimit     time.Duration
		verbose       bool
		noConversions bool
		interactive   bool
	)

	cmd := &cobra.Command{
		Use:   "plan [input-file]",
		Short: "Solve the drawdown plan for a configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := config.NewInputParser()
			configData, err := parser.LoadFromFile(args[0])
			if err != nil {
				return err
			}

			request := planner.Request{
				Mode:          domain.ModeMaxSpend,
				NoConversions: noConversions,
				TimeLimit:     timeLimit,
				Verbose:       verbose,
			}
			if cmd.Flags().Changed("spend") && cmd.Flags().Changed("roth-target") {
				return errors.New("--spend and --roth-target are mutually exclusive")
			}
			if cmd.Flags().Changed("spend") {
				request.Mode = domain.ModeMinTaxes
				request.Spend = decimal.NewFromFloat(spend)
			}
			if cmd.Flags().Changed("roth-target") {
				request.Mode = domain.ModeRothFloor
				request.RothTarget = decimal.NewFromFloat(rothTarget)
			}

			if interactive {
				_, err := tea.NewProgram(tui.NewModel(configData, request), tea.WithAltScreen()).Run()
				return err
			}

			logger := simpleCLILogger{verbose: verbose}
			plan, err := planner.New(nil, logger).Plan(context.Background(), configData, request)
			if err != nil {
				var infeasible *domain.InfeasibleError
				if errors.As(err, &infeasible) {
					return fmt.Errorf("no feasible plan: %w", err)
				}
				return err
			}

			formatter, err := output.ForFormat(format)
			if err != nil {
				return err
			}
			rendered, err := formatter.Format(plan)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "console", "output format: console or csv")
	cmd.Flags().Float64Var(&spend, "spend", 0, "fix the yearly spending floor and minimize lifetime tax")
	cmd.Flags().Float64Var(&rothTarget, "roth-target", 0, "require an inflation-adjusted terminal Roth balance")
	cmd.Flags().DurationVar(&timeLimit, "timelimit", 3*time.Minute, "solver wall-clock budget")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log solver progress")
	cmd.Flags().BoolVar(&noConversions, "no-conversions", false, "forbid IRA-to-Roth conversions")
	cmd.Flags().BoolVar(&interactive, "tui", false, "interactive terminal interface")
	return cmd
}

func main() {
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(versionCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
