// Command bftechod runs a small in-process demo of the consensus engine:
// a handful of simulated validators, each running its own bftengine.Engine
// over an in-memory write-ahead log, deciding a fixed number of heights of
// a trivial "echo" application that proposes a string naming the height
// and round being decided. It exists to exercise the engine end to end.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bftechod",
		Short: "Demo driver for the bftengine consensus engine",
	}
	cmd.AddCommand(runCmd())
	return cmd
}

func runCmd() *cobra.Command {
	var validators int
	var heights int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a validator set deciding a fixed number of heights",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewTextHandler(os.Stdout, nil))
			return runDemo(cmd.Context(), log, validators, heights)
		},
	}
	cmd.Flags().IntVar(&validators, "validators", 4, "number of simulated validators")
	cmd.Flags().IntVar(&heights, "heights", 3, "number of heights to decide before exiting")
	return cmd
}
