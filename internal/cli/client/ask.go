package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskCmd creates the ask command: retrieve ranked answer context for a query.
func AskCmd() *cobra.Command {
	var (
		personaID   int
		sourceTypes string
		timeCutoff  string
	)

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Retrieve answer context for a query",
		Long:  "Retrieve the ranked, filtered chunk context a persona would hand to the answering model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("json")
			var persona *int
			if cmd.Flags().Changed("persona") {
				persona = &personaID
			}
			return runAsk(cmd, args[0], persona, sourceTypes, timeCutoff, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&personaID, "persona", "p", 0, "Persona id (default persona if omitted)")
	cmd.Flags().String("api-key", "", "API key (overrides env and global config)")
	cmd.Flags().String("api-url", "", "API base URL (overrides env and global config)")
	cmd.Flags().StringVar(&sourceTypes, "source-types", "", "Comma-separated source types to restrict to")
	cmd.Flags().StringVar(&timeCutoff, "time-cutoff", "", "Only include documents updated after this date (YYYY-MM-DD)")
	cmd.Flags().Bool("json", false, "Output raw JSON")

	return cmd
}

type askRequest struct {
	Query       string   `json:"query"`
	PersonaID   *int     `json:"persona_id,omitempty"`
	SourceTypes []string `json:"source_types,omitempty"`
	TimeCutoff  string   `json:"time_cutoff,omitempty"`
}

type askChunk struct {
	ID                string  `json:"id"`
	DocumentID        string  `json:"document_id"`
	Content           string  `json:"content"`
	SourceType        string  `json:"source_type"`
	UpdatedAt         string  `json:"updated_at"`
	Score             float32 `json:"score"`
	RecencyMultiplier float64 `json:"recency_multiplier"`
	FinalScore        float64 `json:"final_score"`
}

type askResponse struct {
	Chunks      []askChunk `json:"chunks"`
	RecencyBias string     `json:"recency_bias"`
	Degraded    []string   `json:"degraded"`
}

func runAsk(cmd *cobra.Command, query string, personaID *int, sourceTypes, timeCutoff string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := askRequest{
		Query:      query,
		PersonaID:  personaID,
		TimeCutoff: timeCutoff,
	}
	if sourceTypes != "" {
		for _, sourceType := range strings.Split(sourceTypes, ",") {
			req.SourceTypes = append(req.SourceTypes, strings.TrimSpace(sourceType))
		}
	}

	resp, err := api.Post("/context", req)
	if err != nil {
		return err
	}

	if outputJSON {
		var pretty json.RawMessage = resp.Data
		data, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	var result askResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Chunks) == 0 {
		fmt.Println("No context found")
		return nil
	}

	fmt.Printf("Recency bias: %s\n", result.RecencyBias)
	if len(result.Degraded) > 0 {
		fmt.Printf("Degraded stages: %s\n", strings.Join(result.Degraded, ", "))
	}
	fmt.Println()

	for i, chunk := range result.Chunks {
		fmt.Printf("--- [%d] %s (%s, score %.3f) ---\n", i+1, chunk.DocumentID, chunk.SourceType, chunk.FinalScore)
		fmt.Println(truncateContent(chunk.Content, 400))
		fmt.Println()
	}

	return nil
}

func truncateContent(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}
	return content[:maxChars] + "..."
}
