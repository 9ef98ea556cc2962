package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/projection"
	"bilancio/internal/services"
)

var (
	logLevel string

	forceRollover bool
	confirmReset  bool
	exportPath    string
	monthFlag     string
	sortField     string
	sortOrder     string
)

var rootCmd = &cobra.Command{
	Use:   "bilancioctl",
	Short: "Administrative commands for the bilancio budget store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
	SilenceUsage: true,
}

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Archive the current month and clear its variable expenses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *services.FinanceService) error {
			snap, err := rollover(ctx, svc, forceRollover)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), snap)
		})
	},
}

// rollover returns the snapshot written while loading on the reset day, or
// archives the current month.
func rollover(ctx context.Context, svc *services.FinanceService, force bool) (core.MonthlyData, error) {
	if snap, ok := svc.LoadArchived(); ok {
		return snap, nil
	}
	return svc.Archive(ctx, force)
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every persisted key and start from an empty store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !confirmReset {
			return errResetNotConfirmed
		}
		return withService(cmd.Context(), func(ctx context.Context, svc *services.FinanceService) error {
			if err := svc.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "state reset")
			return nil
		})
	},
}

var errResetNotConfirmed = errors.New("reset deletes all data; pass --yes to confirm")

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the full state as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd.Context(), func(_ context.Context, svc *services.FinanceService) error {
			if exportPath == "" {
				return writeJSON(cmd.OutOrStdout(), svc.Export())
			}
			f, err := os.Create(exportPath)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := writeJSON(f, svc.Export()); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	},
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "List the fixed expenses projected into a month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		field, order, err := projection.ParseSort(sortField, sortOrder)
		if err != nil {
			return err
		}
		return withService(cmd.Context(), func(_ context.Context, svc *services.FinanceService) error {
			month, err := resolveMonth(svc)
			if err != nil {
				return err
			}
			occs := svc.ProjectFixedExpenses(month)
			projection.SortOccurrences(occs, field, order)

			out := cmd.OutOrStdout()
			for _, o := range occs {
				fmt.Fprintf(out, "%-24s %-30s %10s  %s  %s\n",
					o.ID(), o.Expense.Name, o.Expense.Amount, o.DueDate(), svc.ExpenseStatus(o.Expense))
			}
			return nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the budget summary of a month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd.Context(), func(_ context.Context, svc *services.FinanceService) error {
			month, err := resolveMonth(svc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), svc.Summary(month))
		})
	},
}

func resolveMonth(svc *services.FinanceService) (core.MonthKey, error) {
	if monthFlag == "" {
		return svc.CurrentMonth(), nil
	}
	return core.ParseMonthKey(monthFlag)
}

// withService opens the configured backend, runs fn and closes it.
func withService(ctx context.Context, fn func(context.Context, *services.FinanceService) error) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := cli.SetupLogger(cfg.LogLevel)

	svc, err := cli.InitService(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.LogError(ctx, "Failed to close service", err, log.OpShutdown, nil)
		}
	}()
	return fn(ctx, svc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rolloverCmd.Flags().BoolVar(&forceRollover, "force", false, "Archive even if the reset day has not been reached")
	resetCmd.Flags().BoolVar(&confirmReset, "yes", false, "Confirm deleting all persisted data")
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "Write the export to this file instead of stdout")

	for _, c := range []*cobra.Command{projectCmd, summaryCmd} {
		c.Flags().StringVar(&monthFlag, "month", "", "Month as YYYY-MM (default: current month)")
	}
	projectCmd.Flags().StringVar(&sortField, "sort", "date", "Sort by date, name or amount")
	projectCmd.Flags().StringVar(&sortOrder, "order", "asc", "Sort order (asc or desc)")

	rootCmd.AddCommand(rolloverCmd, resetCmd, exportCmd, projectCmd, summaryCmd)
}

func main() {
	ctx, stop := cli.GracefulShutdown(log.Default(log.ComponentApp))
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
