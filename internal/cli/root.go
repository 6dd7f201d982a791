package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, sess := newRootCmd()
	err := root.ExecuteContext(ctx)
	if cerr := sess.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func newRootCmd() (*cobra.Command, *session) {
	sess := &session{logOut: os.Stderr}

	root := &cobra.Command{
		Use:   "expenses",
		Short: "Track personal expenses",
		Long: `Record expenses, review totals by category, render a category chart
and export everything as CSV. Data is kept in the backend selected by
DATA_BACKEND (memory, file or sqlite).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			sess.logOut = cmd.ErrOrStderr()
		},
	}

	root.AddCommand(
		newAddCmd(sess),
		newEditCmd(sess),
		newDeleteCmd(sess),
		newListCmd(sess),
		newSummaryCmd(sess),
		newChartCmd(sess),
		newExportCmd(sess),
		newWelcomeCmd(sess),
		newServeCmd(sess),
		newWatchCmd(sess),
	)
	return root, sess
}
