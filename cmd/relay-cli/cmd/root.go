package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	addr  string
	token string
)

var rootCmd = &cobra.Command{
	Use:   "relay-cli",
	Short: "Relay CLI tool",
	Long: `relay-cli is a command-line client for the chat relay server.

Available commands:
  listen    Connect, authenticate, and print incoming events
  send      Send a chat message (admins can target a user with --to)

Use "relay-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "ws://localhost:4000/ws", "relay WebSocket endpoint")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer credential for authentication")
}
