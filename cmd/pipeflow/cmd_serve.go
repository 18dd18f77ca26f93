// ABOUTME: The serve subcommand: runs the HTTP editor with an in-memory session store.
// ABOUTME: Shuts down gracefully when the command context is cancelled.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/2389-research/pipeflow/editor"
	"github.com/2389-research/pipeflow/logging"
)

const (
	cleanupInterval = time.Minute
	shutdownTimeout = 5 * time.Second
)

func (a *app) serveCmd() *cobra.Command {
	var persist bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flow editor HTTP server",
		Long: "Serves editing sessions over JSON HTTP. Sessions live in memory and expire after\n" +
			"session-ttl of inactivity. With --journal, --data-dir or --persist every edit attempt\n" +
			"is recorded in a SQLite journal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if persist && cfg.Journal == "" && cfg.DataDir == "" {
				dir, err := defaultDataDir()
				if err != nil {
					return err
				}
				cfg.DataDir = dir
			}

			var opts []editor.ServerOption
			if path := cfg.JournalPath(); path != "" {
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("create journal dir: %w", err)
				}
				journal, err := editor.OpenJournal(path)
				if err != nil {
					return err
				}
				defer journal.Close()
				opts = append(opts, editor.WithJournal(journal))
				a.logger.Info("journal enabled", "path", path)
			}
			opts = append(opts, editor.WithLogger(logging.New("http")))

			store := editor.NewStore(cfg.MaxSessions, cfg.SessionTTL).WithVocabulary(cfg.Vocab())
			stopCleanup := store.StartCleanup(cleanupInterval)
			defer stopCleanup()

			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
			}
			a.logger.Info("listening", "addr", ln.Addr().String(), "max_sessions", cfg.MaxSessions, "session_ttl", cfg.SessionTTL)
			return serve(cmd.Context(), ln, editor.NewServer(store, opts...))
		},
	}

	f := cmd.Flags()
	f.String("addr", "127.0.0.1:8420", "listen address")
	f.Int("max-sessions", 100, "maximum number of live sessions")
	f.Duration("session-ttl", time.Hour, "idle time before a session expires")
	f.String("journal", "", "SQLite journal file for edit history")
	f.String("data-dir", "", "data directory; the journal is kept at data-dir/journal.db")
	f.BoolVar(&persist, "persist", false, "keep a journal in the default data directory")
	return cmd
}

// serve runs h on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
