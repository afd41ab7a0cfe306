package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/freeeve/chesscoach/internal/coach"
	"github.com/freeeve/chesscoach/internal/config"
	"github.com/freeeve/chesscoach/internal/engine"
	"github.com/freeeve/chesscoach/internal/logx"
)

// spinnerCharSet is the braille dots set.
const spinnerCharSet = 14

// app is built once per invocation by the root command.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	providers []engine.Provider
	svc       *coach.Service
}

func Root() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "analyze",
		Short: "Ask the engine provider chain about a chess position",
		Long: heredoc.Doc(`analyze queries the configured chess engine providers in
			priority order and prints the first usable answer as JSON.

			Providers come from the config file (default
			$XDG_CONFIG_HOME/chesscoach/config.yaml); without one the
			built-in remote providers are used. Set STOCKFISH_PATH to add
			a local engine as the last resort.`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	// global flags
	root.PersistentFlags().String("config", config.DefaultPath(), "YAML config file")
	root.PersistentFlags().BoolP("trace", "t", false, "Show Trace Information")

	root.AddCommand(bestMoveCmd(a))
	root.AddCommand(reviewCmd(a))
	root.AddCommand(providersCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := "warn"
	if cmd.Flag("trace").Changed {
		level = "trace"
	}
	a.log = logx.NewLogger(cmd.ErrOrStderr(), level)

	a.providers, err = cfg.BuildProviders(a.log, &http.Client{}, os.Getenv("STOCKFISH_PATH"))
	if err != nil {
		return err
	}
	client := engine.NewClient(a.log, a.providers...)
	a.svc = coach.NewService(a.log, client, nil)
	return nil
}

// wait runs fn with a spinner on stderr when stderr is a terminal.
func wait(cmd *cobra.Command, fn func() error) error {
	if f, ok := cmd.ErrOrStderr().(*os.File); ok && isTerminal(f) {
		s := spinner.New(spinner.CharSets[spinnerCharSet], 100*time.Millisecond, spinner.WithWriter(f))
		s.Suffix = " analyzing..."
		s.Start()
		defer s.Stop()
	}
	return fn()
}

func isTerminal(f *os.File) bool {
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
