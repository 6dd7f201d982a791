package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"expensetracker/internal/charts"
	"expensetracker/internal/export"
	"expensetracker/internal/metrics"
)

// writeOutput writes data to path, or to out when path is "-".
func writeOutput(out io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func newExportCmd(sess *session) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all expenses as CSV",
		Long: `Writes every expense in the order it was added. The default file name
is expenses-YYYY-MM-DD.csv in the current directory; use -o - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.open(cmd.Context())
			if err != nil {
				return err
			}
			data, err := export.ToCSV(a.store.List(cmd.Context()))
			if errors.Is(err, export.ErrEmptyInput) {
				metrics.Exports.WithLabelValues("empty").Inc()
				return fmt.Errorf("%w: nothing to export", errNothingToDo)
			}
			if err != nil {
				metrics.Exports.WithLabelValues("error").Inc()
				return err
			}

			path := output
			if path == "" {
				path = export.Filename(time.Now())
			}
			if err := writeOutput(cmd.OutOrStdout(), path, []byte(data)); err != nil {
				metrics.Exports.WithLabelValues("error").Inc()
				return err
			}
			metrics.Exports.WithLabelValues("ok").Inc()
			if path != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout")
	return cmd
}

func newChartCmd(sess *session) *cobra.Command {
	var output string
	gen := charts.NewChartGenerator()
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render the category breakdown as a PNG pie chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.open(cmd.Context())
			if err != nil {
				return err
			}
			png, err := gen.CategoryPNG(a.store.List(cmd.Context()))
			if errors.Is(err, charts.ErrNoData) {
				return fmt.Errorf("%w: nothing to chart", errNothingToDo)
			}
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), output, png); err != nil {
				return err
			}
			if output != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "expenses-chart.png", "Output file, - for stdout")
	cmd.Flags().IntVar(&gen.Width, "width", gen.Width, "Image width in pixels")
	cmd.Flags().IntVar(&gen.Height, "height", gen.Height, "Image height in pixels")
	return cmd
}

func newWelcomeCmd(sess *session) *cobra.Command {
	var dismiss, reset bool
	cmd := &cobra.Command{
		Use:   "welcome",
		Short: "Show the welcome notes, or dismiss them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dismiss && reset {
				return errors.New("--dismiss and --reset are mutually exclusive")
			}
			a, err := sess.open(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			switch {
			case dismiss:
				a.prefs.DismissWelcome(ctx)
				fmt.Fprintln(out, "Welcome notes dismissed.")
			case reset:
				a.prefs.SetShowWelcome(ctx, true)
				fmt.Fprintln(out, "Welcome notes will show again.")
			case a.prefs.ShowWelcome(ctx):
				fmt.Fprint(out, welcomeText)
			default:
				fmt.Fprintln(out, "Welcome notes are dismissed. Use --reset to show them again.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dismiss, "dismiss", false, "Stop showing the welcome notes")
	cmd.Flags().BoolVar(&reset, "reset", false, "Show the welcome notes again")
	return cmd
}

const welcomeText = `Welcome to Expense Tracker.

  expenses add       record what you spent
  expenses list      see your expenses, newest first
  expenses summary   totals by category
  expenses chart     a pie chart of where the money goes
  expenses export    download everything as CSV

Run "expenses welcome --dismiss" to hide this message.
`
