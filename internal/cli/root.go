package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "partyroom",
		Short: "Room coordinator for the party game",
		Long: `partyroom hosts and drives party-game rooms: join-by-code lobbies,
host-controlled phase progression, fact submission and voting, and scoring.

The serve command exposes the room service over HTTP with an SSE snapshot
stream per room. The simulate command runs a complete scripted game against
a chosen store backend, with one coordinator per simulated player.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSimulateCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
