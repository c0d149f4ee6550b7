package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// DocumentSetsCmd creates the document-sets command with subcommands.
func DocumentSetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "document-sets",
		Short: "Manage document sets",
		Long:  "List and create the named document collections personas can scope to",
	}

	cmd.AddCommand(DocumentSetsListCmd())
	cmd.AddCommand(DocumentSetsCreateCmd())

	return cmd
}

func DocumentSetsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List document sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("json")
			return runDocumentSetsList(cmd, outputJSON)
		},
	}

	cmd.Flags().String("api-key", "", "API key (overrides env and global config)")
	cmd.Flags().String("api-url", "", "API base URL (overrides env and global config)")
	cmd.Flags().Bool("json", false, "Output raw JSON")

	return cmd
}

func runDocumentSetsList(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/document-sets")
	if err != nil {
		return err
	}

	if outputJSON {
		data, _ := json.MarshalIndent(json.RawMessage(resp.Data), "", "  ")
		fmt.Println(string(data))
		return nil
	}

	var result struct {
		DocumentSets []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"document_sets"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.DocumentSets) == 0 {
		fmt.Println("No document sets found")
		return nil
	}

	for _, set := range result.DocumentSets {
		fmt.Printf("  %s: %s\n", set.ID, set.Name)
	}

	return nil
}

func DocumentSetsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a document set",
		Long:  "Create a named document set (idempotent: an existing name returns the existing set)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocumentSetsCreate(cmd, args[0])
		},
	}

	cmd.Flags().String("api-key", "", "API key (overrides env and global config)")
	cmd.Flags().String("api-url", "", "API base URL (overrides env and global config)")

	return cmd
}

func runDocumentSetsCreate(cmd *cobra.Command, name string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/document-sets", map[string]string{"name": name})
	if err != nil {
		return err
	}

	var set struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Data, &set); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Document set ready: %s (%s)\n", set.Name, set.ID)
	return nil
}
