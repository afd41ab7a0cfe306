package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/freeeve/chesscoach/internal/coach"
	"github.com/freeeve/chesscoach/internal/engine"
)

func bestMoveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bestmove",
		Short: "Print the best move and candidate lines for a position",
		Long: heredoc.Doc(`bestmove asks each provider in turn until one returns a
			usable answer. Scores are in centipawns from the side to
			move's point of view; mates are reported as a move count.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fen, _ := cmd.Flags().GetString("fen")
			depth, _ := cmd.Flags().GetInt("depth")
			lines, _ := cmd.Flags().GetInt("lines")
			if depth < 1 || lines < 1 {
				return fmt.Errorf("depth and lines must be positive")
			}

			var analysis *coach.Analysis
			err := wait(cmd, func() (err error) {
				analysis, err = a.svc.Analyze(cmd.Context(), fen, depth, lines)
				return err
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	}
	cmd.Flags().String("fen", engine.StartFEN, "position to analyze")
	cmd.Flags().Int("depth", 15, "search depth")
	cmd.Flags().Int("lines", 1, "candidate lines")
	return cmd
}

func reviewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Grade a move against the engine's choice",
		Long: heredoc.Doc(`review plays --move in --fen and compares the result with
			the engine's best move, reporting the centipawn loss and a
			label from best to blunder.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fen, _ := cmd.Flags().GetString("fen")
			mv, _ := cmd.Flags().GetString("move")
			depth, _ := cmd.Flags().GetInt("depth")

			var review *coach.Review
			err := wait(cmd, func() (err error) {
				review, err = a.svc.Review(cmd.Context(), fen, mv, depth)
				return err
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), review)
		},
	}
	cmd.Flags().String("fen", engine.StartFEN, "position before the move")
	cmd.Flags().String("move", "", "move in coordinate notation, e.g. e2e4")
	cmd.Flags().Int("depth", 15, "search depth")
	_ = cmd.MarkFlagRequired("move")
	return cmd
}

func providersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the provider chain in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, p := range a.providers {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, p.Name())
			}
			return nil
		},
	}
}
