package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

const cacheSweepInterval = time.Minute

func newServeCmd(sess *session) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.open(cmd.Context())
			if err != nil {
				return err
			}
			if port == "" {
				port = a.cfg.Port
			}
			return serve(cmd.Context(), a, ":"+port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default from PORT)")
	return cmd
}

// serve runs the API server and the cache sweeper until ctx is cancelled or
// the listener fails, then shuts the server down within the configured
// timeout.
func serve(ctx context.Context, a *app, addr string) error {
	logger := a.logger.WithComponent(applog.ComponentApp)

	srv := apphttp.NewServer(addr, apphttp.Deps{
		Store:        a.store,
		Preferences:  a.prefs,
		Logger:       a.logger,
		RateLimitRPM: a.cfg.RateLimitRPM,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	caches := cache.NewManager()
	caches.Register(srv.RenderCache())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense tracker server",
			"addr", addr,
			applog.FieldBackend, a.cfg.DataBackend,
			"amqp_enabled", a.backend.Notifier != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		return caches.Run(gctx, cacheSweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func newWatchCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print expense change events from the AMQP exchange",
		Long: `Subscribes to the change feed that every process publishes to when
AMQP_URL is set, and prints one line per created, updated or deleted
expense until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.open(cmd.Context())
			if err != nil {
				return err
			}
			if !a.cfg.AMQPEnabled() {
				return errors.New("AMQP_URL is not set, there is no change feed to watch")
			}

			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			ops := []string{services.ChangeCreated, services.ChangeUpdated, services.ChangeDeleted}
			err = client.ConsumeExpenseChanges(cmd.Context(), ops, func(msg *amqp.ExpenseChangeMessage) error {
				_, err := fmt.Fprintf(out, "%s %-7s %s\n", msg.Timestamp.Local().Format(time.DateTime), msg.Op, msg.ID)
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
