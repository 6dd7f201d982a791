package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/core"
	"expensetracker/internal/form"
)

func addFormFlags(cmd *cobra.Command, in *form.Input) {
	cmd.Flags().StringVarP(&in.Title, "title", "t", in.Title, "What the money was spent on")
	cmd.Flags().StringVarP(&in.Amount, "amount", "a", in.Amount, "Amount, e.g. 12.50")
	cmd.Flags().StringVarP(&in.Category, "category", "c", in.Category, "Category label")
	cmd.Flags().StringVarP(&in.Date, "date", "d", in.Date, "Date as YYYY-MM-DD")
}

func newAddCmd(sess *session) *cobra.Command {
	in := form.Blank()
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Example: `  expenses add --title "Coffee" --amount 4.50 --category "Dining Out"
  expenses add -t Rent -a 1200 -c Rent/Mortgage -d 2024-03-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.open(cmd.Context())
			if err != nil {
				return err
			}
			sub, err := form.Parse(in)
			if err != nil {
				return form.ErrInvalid
			}
			e, err := form.Submit(cmd.Context(), a.store, sub)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s %s (%s, %s)\n",
				e.ID, e.Title, e.Amount.Dollars(), core.DisplayCategory(e.Category), e.Date)
			return nil
		},
	}
	addFormFlags(cmd, &in)
	return cmd
}

func newEditCmd(sess *session) *cobra.Command {
	var patch form.Input
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of an existing expense",
		Long:  `Only the fields given as flags change; the others keep their stored values.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.open(cmd.Context())
			if err != nil {
				return err
			}
			current, ok := a.store.Get(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("expense %s not found", args[0])
			}

			in := form.FromExpense(current)
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title = patch.Title
			}
			if flags.Changed("amount") {
				in.Amount = patch.Amount
			}
			if flags.Changed("category") {
				in.Category = patch.Category
			}
			if flags.Changed("date") {
				in.Date = patch.Date
			}

			sub, err := form.Parse(in)
			if err != nil {
				return form.ErrInvalid
			}
			e, err := form.Submit(cmd.Context(), a.store, sub)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s %s (%s, %s)\n",
				e.ID, e.Title, e.Amount.Dollars(), core.DisplayCategory(e.Category), e.Date)
			return nil
		},
	}
	addFormFlags(cmd, &patch)
	return cmd
}

func newDeleteCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete expenses by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.open(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				a.store.Delete(cmd.Context(), id)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	}
}

func newListCmd(sess *session) *cobra.Command {
	var insertion bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List expenses, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.open(cmd.Context())
			if err != nil {
				return err
			}
			items := a.store.List(cmd.Context())
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No expenses yet. Add one with: expenses add")
				return nil
			}
			if !insertion {
				items = aggregate.SortByDateDesc(items)
			}
			return writeTable(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().BoolVar(&insertion, "insertion-order", false, "Keep the order expenses were added in")
	return cmd
}

func writeTable(out io.Writer, items []core.Expense) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTITLE\tCATEGORY\tAMOUNT\tID")
	for _, e := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Date, e.Title, core.DisplayCategory(e.Category), e.Amount.Dollars(), e.ID)
	}
	return tw.Flush()
}

func newSummaryCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show total spend and the split by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.open(cmd.Context())
			if err != nil {
				return err
			}
			summary := aggregate.Summarize(a.store.List(cmd.Context()))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total: %s across %d expense(s)\n", summary.Total.Dollars(), summary.Count)
			if summary.Count == 0 {
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, s := range aggregate.Breakdown(summary.ByCategory).Percentages() {
				fmt.Fprintf(tw, "  %s\t%s\t%d%%\n", s.Name, s.Amount.Dollars(), s.Percent)
			}
			return tw.Flush()
		},
	}
}

var errNothingToDo = errors.New("no expenses yet")
