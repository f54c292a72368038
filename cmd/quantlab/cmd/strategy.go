package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantlab/journal"
	"github.com/rustyeddy/quantlab/safety"
	"github.com/rustyeddy/quantlab/strategies"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Manage validated strategy sources",
	Long: `Store, inspect and remove strategy sources in the SQLite journal.
Sources are validated before they are saved.

Subcommands:
  save <name> <file> - Validate and store a source file
  get <name>         - Print a stored source
  list               - List stored strategies and built-in presets
  delete <name>      - Remove a stored source

Examples:
  quantlab strategy save momentum momentum.py
  quantlab strategy list --db quantlab.sqlite`,
}

var strategySaveCmd = &cobra.Command{
	Use:   "save <name> <file>",
	Short: "Validate and store a strategy source",
	Args:  cobra.ExactArgs(2),
	RunE:  runStrategySave,
}

var strategyGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a stored strategy source",
	Args:  cobra.ExactArgs(1),
	RunE:  runStrategyGet,
}

var strategyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored strategies and presets",
	Args:  cobra.NoArgs,
	RunE:  runStrategyList,
}

var strategyDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a stored strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runStrategyDelete,
}

var strategyDBPath string

func init() {
	rootCmd.AddCommand(strategyCmd)
	strategyCmd.AddCommand(strategySaveCmd, strategyGetCmd, strategyListCmd, strategyDeleteCmd)

	strategyCmd.PersistentFlags().StringVarP(&strategyDBPath, "db", "d", "./quantlab.sqlite", "path to SQLite journal DB")
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, j *journal.SQLite) error) error {
	j, err := journal.NewSQLite(strategyDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, j)
}

func runStrategySave(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]
	v := safety.New()
	if err := v.ValidateName(name); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	res := v.Validate(string(data))
	if !res.OK {
		return &safety.RejectionError{Name: name, Rule: res.Rule, Reason: res.Reason, Line: res.Line}
	}

	return withStore(cmd, func(ctx context.Context, j *journal.SQLite) error {
		err := j.SaveStrategy(ctx, journal.StrategyRecord{
			Name:    name,
			Dialect: string(res.Dialect),
			Source:  string(data),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s (%s, %s)\n", name, res.Dialect, filepath.Base(path))
		return nil
	})
}

func runStrategyGet(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, j *journal.SQLite) error {
		rec, err := j.GetStrategy(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rec.Source)
		if !strings.HasSuffix(rec.Source, "\n") {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	})
}

func runStrategyList(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, j *journal.SQLite) error {
		recs, err := j.ListStrategies(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tKIND\tUPDATED")
		for _, name := range strategies.Names() {
			fmt.Fprintf(tw, "%s\tpreset\t-\n", name)
		}
		for _, r := range recs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Dialect, r.Updated.Local().Format(time.DateTime))
		}
		return tw.Flush()
	})
}

func runStrategyDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, j *journal.SQLite) error {
		if err := j.DeleteStrategy(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
		return nil
	})
}
