// ABOUTME: CLI entrypoint for pipeflow: parse, lint, patch, render and watch flow files, or serve the editor.
// ABOUTME: Loads layered config and initializes logging before any subcommand runs.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389-research/pipeflow/config"
	"github.com/2389-research/pipeflow/flow"
	"github.com/2389-research/pipeflow/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

// app carries state shared by every subcommand once setup has run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stdin  io.Reader
}

func newRootCmd() *cobra.Command {
	return (&app{stdin: os.Stdin}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pipeflow",
		Short: "Parse, edit, lint and render pipeline flow configurations",
		Long: "pipeflow reads adapter/pipeline markup, derives the flow graph of receivers,\n" +
			"pipes and exits, and applies structural edits without disturbing the rest of the text.",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default: pipeflow.yaml or pipeflow.toml here, then in the user config dir)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("adapter", "", "adapter to operate on (default: first adapter in the file)")
	pf.StringSlice("pipe-suffixes", nil, "extra element name suffixes that mark pipes")

	root.AddCommand(
		a.parseCmd(),
		a.lintCmd(),
		a.patchCmd(),
		a.renderCmd(),
		a.watchCmd(),
		a.serveCmd(),
		a.mcpCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if f := flags.Lookup("config"); f != nil && f.Value.String() == "" {
		if path := userConfigFile(); path != "" {
			if err := flags.Set("config", path); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.Init(level, cfg.LogFormat, cmd.ErrOrStderr())

	a.cfg = cfg
	a.logger = logging.New("cli")
	return nil
}

// document reads path ("-" for stdin) into a document context using the
// configured adapter and vocabulary.
func (a *app) document(path string) (flow.DocumentContext, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return flow.DocumentContext{}, fmt.Errorf("read %s: %w", path, err)
	}
	return flow.DocumentContext{
		Text:       string(data),
		Adapter:    a.cfg.Adapter,
		Vocabulary: a.cfg.Vocab(),
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
