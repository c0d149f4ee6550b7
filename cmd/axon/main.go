package main

import (
	"fmt"
	"os"

	"github.com/axondocs/axon/internal/cli"
	"github.com/axondocs/axon/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "axon",
		Short: "Axon CLI - Persona-driven answer context retrieval",
		Long: `Axon CLI retrieves ranked, filtered document context for question answering.

Environment variables:
  AXON_API_KEY   API key for authentication (required)
  AXON_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.PersonasCmd())
	rootCmd.AddCommand(client.DocumentSetsCmd())
	rootCmd.AddCommand(client.AuthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
