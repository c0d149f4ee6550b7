package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// PersonasCmd creates the personas command with subcommands.
func PersonasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "Inspect retrieval personas",
		Long:  "List and show the personas configured on the server",
	}

	cmd.AddCommand(PersonasListCmd())
	cmd.AddCommand(PersonasShowCmd())

	return cmd
}

type personaSummary struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	RecencyBias string `json:"recency_bias"`
	NumChunks   *int   `json:"num_chunks"`
}

func PersonasListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("json")
			return runPersonasList(cmd, outputJSON)
		},
	}

	cmd.Flags().String("api-key", "", "API key (overrides env and global config)")
	cmd.Flags().String("api-url", "", "API base URL (overrides env and global config)")
	cmd.Flags().Bool("json", false, "Output raw JSON")

	return cmd
}

func runPersonasList(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/personas")
	if err != nil {
		return err
	}

	if outputJSON {
		data, _ := json.MarshalIndent(json.RawMessage(resp.Data), "", "  ")
		fmt.Println(string(data))
		return nil
	}

	var result struct {
		Personas []personaSummary `json:"personas"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Personas) == 0 {
		fmt.Println("No personas found")
		return nil
	}

	for _, persona := range result.Personas {
		budget := "default"
		if persona.NumChunks != nil {
			budget = fmt.Sprintf("%d", *persona.NumChunks)
		}
		fmt.Printf("  %d: %s (recency: %s, chunks: %s)\n", persona.ID, persona.Name, persona.RecencyBias, budget)
	}

	return nil
}

func PersonasShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonasShow(cmd, args[0])
		},
	}

	cmd.Flags().String("api-key", "", "API key (overrides env and global config)")
	cmd.Flags().String("api-url", "", "API base URL (overrides env and global config)")

	return cmd
}

func runPersonasShow(cmd *cobra.Command, id string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/personas/" + id)
	if err != nil {
		return err
	}

	data, _ := json.MarshalIndent(json.RawMessage(resp.Data), "", "  ")
	fmt.Println(string(data))
	return nil
}
