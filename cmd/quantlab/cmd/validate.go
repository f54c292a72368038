package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantlab/safety"
	"github.com/rustyeddy/quantlab/strategies"
)

var validateCmd = &cobra.Command{
	Use:   "validate <source-file>",
	Short: "Check strategy source for lookahead",
	Long: `Validate scans strategy source for constructs that read future bars:
negative shifts, forward indexing, forward slices and open-ended slices.

Go source is parsed and matched on its syntax tree; any other text is matched
literally after comments and string contents are blanked.

Examples:
  quantlab validate strategy.py
  quantlab validate --preset ema-cross`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var validatePreset string

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validatePreset, "preset", "", "validate a built-in preset's source instead of a file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	var name, src string
	switch {
	case validatePreset != "":
		_, s, err := strategies.Preset(validatePreset, strategies.DefaultParams())
		if err != nil {
			return err
		}
		name, src = validatePreset, s
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}
		name, src = args[0], string(data)
	default:
		return fmt.Errorf("a source file or --preset is required")
	}

	res := safety.New().Validate(src)
	w := cmd.OutOrStdout()
	if res.OK {
		fmt.Fprintf(w, "✓ %s: approved (%s)\n", name, res.Dialect)
		return nil
	}
	fmt.Fprintf(w, "✗ %s: rejected (%s)\n", name, res.Dialect)
	fmt.Fprintf(w, "  rule:   %s\n", res.Rule)
	if res.Line > 0 {
		fmt.Fprintf(w, "  line:   %d\n", res.Line)
	}
	fmt.Fprintf(w, "  reason: %s\n", res.Reason)
	return &safety.RejectionError{Name: name, Rule: res.Rule, Reason: res.Reason, Line: res.Line}
}
