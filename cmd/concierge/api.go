package main

import (
	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running concierge server via HTTP.

These commands require a running server (concierge serve).
Use --server to specify a custom server URL.

Examples:
  concierge api health                          # Check server health
  concierge api answer "Do you take bookings?"  # Ask the assistant
  concierge api finetune get <job-id> --check   # Refresh and show a job`,
}

var apiFinetuneCmd = &cobra.Command{
	Use:   "finetune",
	Short: "Fine-tuning job commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.AnswerEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ChatEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SpeakEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.MetricsEndpoint{}).Command(getServerURL))

	apiFinetuneCmd.AddCommand((&endpoints.ListFineTuneJobsEndpoint{}).Command(getServerURL))
	apiFinetuneCmd.AddCommand((&endpoints.GetFineTuneJobEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(apiFinetuneCmd)
	rootCmd.AddCommand(apiCmd)
}
