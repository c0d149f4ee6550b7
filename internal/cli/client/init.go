package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const envFile = ".env"

// InitCmd creates the init command: write a local .env with API credentials.
func InitCmd() *cobra.Command {
	var apiKey string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize credentials for the current directory",
		Long:  "Creates a .env file with the API key and URL, and verifies them against the server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(apiKey, apiURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (default: http://localhost:8080)")
	cmd.Flags().Bool("output", false, "Output as JSON")

	return cmd
}

func runInit(apiKey, apiURL string, outputJSON bool) error {
	if _, err := os.Stat(envFile); err == nil {
		return fmt.Errorf(".env already exists")
	}

	_ = godotenv.Load()
	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	if apiKey == "" {
		fmt.Print("Enter API key: ")
		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		apiKey = strings.TrimSpace(input)
		if apiKey == "" {
			return fmt.Errorf("API key is required")
		}
	}

	if !IsValidAPIKey(apiKey) {
		return fmt.Errorf("invalid API key format (expected: axn_ + 64 hex characters)")
	}

	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	envData := fmt.Sprintf("%s=%s\n%s=%s\n", envAPIKey, apiKey, envAPIURL, apiURL)
	if err := os.WriteFile(envFile, []byte(envData), 0600); err != nil {
		return fmt.Errorf("failed to create .env: %w", err)
	}

	api, err := NewAPIClientWithConfig(apiKey, apiURL)
	if err != nil {
		os.Remove(envFile)
		return fmt.Errorf("failed to create API client: %w", err)
	}

	// Hit an authenticated endpoint so a bad key fails here, not on first use.
	if _, err := api.Get("/personas"); err != nil {
		os.Remove(envFile)
		return fmt.Errorf("failed to verify credentials: %w", err)
	}

	if outputJSON {
		result := map[string]interface{}{
			"success": true,
			"api_url": apiURL,
			"env":     envFile,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Credentials verified against %s\n", apiURL)
		fmt.Printf("Saved to %s\n", envFile)
	}

	return nil
}
