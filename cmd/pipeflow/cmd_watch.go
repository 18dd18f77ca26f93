// ABOUTME: The watch subcommand: re-parses, lints and optionally re-renders a file on change.
// ABOUTME: Filesystem events are debounced so one save triggers one refresh.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/2389-research/pipeflow/flow"
	"github.com/2389-research/pipeflow/flow/validator"
	"github.com/2389-research/pipeflow/logging"
	"github.com/2389-research/pipeflow/render"
	"github.com/2389-research/pipeflow/tui"
)

const defaultDebounce = 150 * time.Millisecond

func (a *app) watchCmd() *cobra.Command {
	var renderOut string
	var debounce time.Duration
	var width int

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-parse and lint a flow file whenever it changes",
		Long: "Prints a fresh summary each time FILE is saved. With --render the graph is\n" +
			"re-rendered to the given file; unchanged graphs are served from a cache.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if path == "-" {
				return fmt.Errorf("cannot watch stdin")
			}
			w := &flowWatcher{
				app:    a,
				path:   path,
				out:    cmd.OutOrStdout(),
				width:  width,
				target: renderOut,
				format: a.cfg.Format,
			}
			if renderOut != "" {
				w.cache = render.NewRenderCache(nil, time.Hour)
			}

			w.refresh(cmd.Context())
			return watchFile(cmd.Context(), path, debounce, func() { w.refresh(cmd.Context()) })
		},
	}

	cmd.Flags().StringVar(&renderOut, "render", "", "re-render the graph to this file on every change")
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before a change is processed")
	cmd.Flags().IntVar(&width, "width", 0, "summary panel width (0 fits the content)")
	return cmd
}

// flowWatcher reacts to a changed flow file. Parse errors are reported and
// the watch continues.
type flowWatcher struct {
	app    *app
	path   string
	out    io.Writer
	width  int
	target string
	format string
	cache  *render.RenderCache
}

func (w *flowWatcher) refresh(ctx context.Context) {
	logger := w.app.logger
	doc, err := w.app.document(w.path)
	if err != nil {
		logger.Error("read failed", "file", w.path, "error", err)
		return
	}
	r, err := flow.Parse(doc)
	if err != nil {
		fmt.Fprintf(w.out, "%s: %v\n", w.path, err)
		return
	}
	fmt.Fprint(w.out, tui.Summary(r, validator.Lint(r), w.width))

	if w.cache == nil {
		return
	}
	data, err := w.cache.Render(ctx, r, w.format)
	if err != nil {
		logger.Error("render failed", "file", w.path, "error", err)
		return
	}
	if err := os.WriteFile(w.target, data, 0o644); err != nil {
		logger.Error("write failed", "file", w.target, "error", err)
		return
	}
	if n := w.cache.Prune(); n > 0 {
		logger.Debug("pruned render cache", "entries", n)
	}
}

// watchFile calls onChange after path has been written, created or renamed
// into place and then left alone for debounce. The parent directory is
// watched so editors that save by replacing the file are still seen.
// It returns when ctx is done.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	logger := logging.New("watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching", "file", target)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-timer.C:
			onChange()
		}
	}
}
