package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/api"
	"github.com/aicsr/concierge/internal/dataset"
	"github.com/aicsr/concierge/internal/finetune"
	"github.com/aicsr/concierge/internal/providers"
	"github.com/aicsr/concierge/internal/store"
)

// newFineTune builds the fine-tuning service. The returned store must be
// closed by the caller.
func newFineTune(e *env) (*finetune.Service, *store.Store, error) {
	client, err := e.openAI()
	if err != nil {
		return nil, nil, err
	}
	jobs, err := e.openStore()
	if err != nil {
		return nil, nil, err
	}
	fc := e.cfg.FineTuneConfig()
	fc.Logger = e.logger
	return finetune.New(client, jobs, fc), jobs, nil
}

var datasetOut string

// DatasetSummary reports a generated dataset.
type DatasetSummary struct {
	File string `json:"file"`
	*dataset.Result
}

var datasetCmd = &cobra.Command{
	Use:   "dataset <pdf>",
	Short: "Generate a Q&A training dataset from a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		svc, jobs, err := newFineTune(e)
		if err != nil {
			return err
		}
		defer jobs.Close()

		res, err := svc.Prepare(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := datasetOut
		if out == "" {
			out = e.home.DatasetPath(args[0], time.Now())
		}
		if err := os.WriteFile(out, []byte(res.JSONL), 0o644); err != nil {
			return fmt.Errorf("failed to write dataset: %w", err)
		}
		return api.Output(DatasetSummary{File: out, Result: res})
	},
}

var finetuneCmd = &cobra.Command{
	Use:   "finetune",
	Short: "Fine-tune a chat model on a restaurant document",
}

var finetuneStartCmd = &cobra.Command{
	Use:   "start <pdf>",
	Short: "Generate a dataset from a PDF, upload it and start a fine-tuning job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		svc, jobs, err := newFineTune(e)
		if err != nil {
			return err
		}
		defer jobs.Close()

		job, err := svc.Start(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return api.Output(job)
	},
}

var finetuneStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Check a fine-tuning job once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		svc, jobs, err := newFineTune(e)
		if err != nil {
			return err
		}
		defer jobs.Close()

		return api.Output(svc.Check(cmd.Context(), args[0]))
	},
}

var finetuneWaitCmd = &cobra.Command{
	Use:   "wait <job-id>",
	Short: "Poll a fine-tuning job until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		svc, jobs, err := newFineTune(e)
		if err != nil {
			return err
		}
		defer jobs.Close()

		e.logger.Info("waiting for fine-tuning job", "job_id", args[0], "interval", svc.PollInterval())
		return api.Output(svc.Wait(cmd.Context(), args[0]))
	},
}

var finetuneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded fine-tuning jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		jobs, err := e.openStore()
		if err != nil {
			return err
		}
		defer jobs.Close()

		list, err := jobs.List(cmd.Context())
		if err != nil {
			return err
		}
		return api.Output(list)
	},
}

var finetuneChatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the fine-tuned model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		svc, jobs, err := newFineTune(e)
		if err != nil {
			return err
		}
		defer jobs.Close()

		msgs := []providers.Message{{Role: "user", Content: strings.Join(args, " ")}}
		r, err := svc.Chat(cmd.Context(), msgs)
		if err != nil {
			e.logger.Warn("fine-tuned chat fell back", "error", err)
		}
		return api.Output(r)
	},
}

func init() {
	datasetCmd.Flags().StringVar(&datasetOut, "out", "", "Output file (default: a timestamped file in the home datasets directory)")

	finetuneCmd.AddCommand(finetuneStartCmd)
	finetuneCmd.AddCommand(finetuneStatusCmd)
	finetuneCmd.AddCommand(finetuneWaitCmd)
	finetuneCmd.AddCommand(finetuneListCmd)
	finetuneCmd.AddCommand(finetuneChatCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(finetuneCmd)
}
