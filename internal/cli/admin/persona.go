package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/repository"
	"github.com/axondocs/axon/internal/service"
	"github.com/spf13/cobra"
)

func PersonaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Manage personas",
		Long:  "Create, list, and inspect retrieval personas",
	}

	cmd.AddCommand(PersonaCreateCmd())
	cmd.AddCommand(PersonaListCmd())
	cmd.AddCommand(PersonaShowCmd())

	return cmd
}

func PersonaCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new persona",
		Long:  "Create a persona that controls retrieval scope, budget, and recency policy",
		RunE:  runPersonaCreate,
	}

	cmd.Flags().StringP("name", "n", "", "Persona name (required)")
	cmd.Flags().String("description", "", "Persona description")
	cmd.Flags().Int("num-chunks", -1, "Chunk budget (0 disables retrieval, omit for default)")
	cmd.Flags().Bool("relevance-filter", false, "Enable per-chunk LLM relevance filtering")
	cmd.Flags().Bool("filter-extraction", false, "Enable LLM filter extraction from query text")
	cmd.Flags().String("recency-bias", "auto", "Recency bias (favor_recent, base_decay, no_decay, auto)")
	cmd.Flags().String("document-sets", "", "Comma-separated document set names")
	cmd.Flags().Bool("datetime-aware", false, "Surface the current time to prompt assembly")
	cmd.Flags().StringP("output", "", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runPersonaCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	numChunksFlag, _ := cmd.Flags().GetInt("num-chunks")
	relevanceFilter, _ := cmd.Flags().GetBool("relevance-filter")
	filterExtraction, _ := cmd.Flags().GetBool("filter-extraction")
	recencyBias, _ := cmd.Flags().GetString("recency-bias")
	documentSets, _ := cmd.Flags().GetString("document-sets")
	datetimeAware, _ := cmd.Flags().GetBool("datetime-aware")
	outputFormat, _ := cmd.Flags().GetString("output")

	var numChunks *int
	if numChunksFlag >= 0 {
		numChunks = &numChunksFlag
	}

	var setNames []string
	if documentSets != "" {
		for _, name := range strings.Split(documentSets, ",") {
			setNames = append(setNames, strings.TrimSpace(name))
		}
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	personaSvc := service.NewPersonaService(repository.NewPersonaRepository(pool))

	persona, err := personaSvc.Create(ctx, service.CreatePersonaInput{
		Name:                name,
		Description:         description,
		NumChunks:           numChunks,
		LLMRelevanceFilter:  relevanceFilter,
		LLMFilterExtraction: filterExtraction,
		RecencyBias:         recencyBias,
		DocumentSetNames:    setNames,
		DatetimeAware:       datetimeAware,
	})
	if err != nil {
		return fmt.Errorf("failed to create persona: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(persona, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Persona created: %d (%s)\n", persona.ID, persona.Name)
	}

	return nil
}

func PersonaListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runPersonaList(outputFormat)
		},
	}

	cmd.Flags().StringP("output", "", "text", "Output format (text or json)")

	return cmd
}

func runPersonaList(outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	personaSvc := service.NewPersonaService(repository.NewPersonaRepository(pool))
	personas, err := personaSvc.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list personas: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(personas, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(personas) == 0 {
			fmt.Println("No personas found")
			return nil
		}
		for _, persona := range personas {
			fmt.Printf("  %d: %s (recency: %s)\n", persona.ID, persona.Name, persona.RecencyBias)
		}
	}

	return nil
}

func PersonaShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a persona",
		Args:  cobra.ExactArgs(1),
		RunE:  runPersonaShow,
	}

	return cmd
}

func runPersonaShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("persona id must be an integer: %s", args[0])
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	personaSvc := service.NewPersonaService(repository.NewPersonaRepository(pool))
	persona, err := personaSvc.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrPersonaNotFound {
			return fmt.Errorf("persona not found: %d", id)
		}
		return err
	}

	jsonBytes, _ := json.MarshalIndent(persona, "", "  ")
	fmt.Println(string(jsonBytes))
	return nil
}
