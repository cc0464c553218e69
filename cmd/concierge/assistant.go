package main

import (
	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/api"
	"github.com/aicsr/concierge/internal/assistant"
)

var (
	assistantName  string
	assistantModel string
)

var assistantCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Manage OpenAI assistants",
}

var assistantCreateCmd = &cobra.Command{
	Use:   "create <pdf>",
	Short: "Create a file-search assistant from a restaurant PDF",
	Long: `Upload the PDF, index it in a new vector store and create an assistant
that answers from it in the Answer/Emotion format.

Put the printed assistant_id into assistant.id to use it with ask and serve.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		client, err := e.openAI()
		if err != nil {
			return err
		}

		name := assistantName
		if name == "" {
			name = e.cfg.Assistant.Name
		}
		model := assistantModel
		if model == "" {
			model = e.cfg.Assistant.Model
		}

		created, err := assistant.CreateAssistant(cmd.Context(), client, name, model, args[0], e.logger)
		if err != nil {
			return err
		}
		return api.Output(created)
	},
}

func init() {
	assistantCreateCmd.Flags().StringVar(&assistantName, "name", "", "Assistant name (default: assistant.name)")
	assistantCreateCmd.Flags().StringVar(&assistantModel, "model", "", "Assistant model (default: assistant.model)")

	assistantCmd.AddCommand(assistantCreateCmd)
	rootCmd.AddCommand(assistantCmd)
}
