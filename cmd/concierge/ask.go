package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/api"
	"github.com/aicsr/concierge/internal/assistant"
)

var askAssistantID string

// newSession builds an assistant session from config; --assistant overrides
// the configured id.
func newSession(e *env) (*assistant.Session, error) {
	client, err := e.openAI()
	if err != nil {
		return nil, err
	}
	id := e.cfg.Assistant.ID
	if askAssistantID != "" {
		id = askAssistantID
	}
	if id == "" {
		return nil, errors.New("no assistant id: set assistant.id or pass --assistant")
	}
	poll := e.cfg.RunPoll()
	poll.Logger = e.logger
	return assistant.NewSession(client, assistant.Config{AssistantID: id, Poll: poll, Logger: e.logger}), nil
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant; without a question, read questions from stdin",
	Long: `Ask the configured assistant a question and print its answer and emotion.

Without arguments, questions are read line by line from stdin and asked on
one thread, so later questions can refer to earlier answers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		session, err := newSession(e)
		if err != nil {
			return err
		}

		if len(args) > 0 {
			r, err := session.Ask(cmd.Context(), strings.Join(args, " "))
			if outErr := api.Output(r); outErr != nil {
				return outErr
			}
			return err
		}

		scanner := bufio.NewScanner(os.Stdin)
		fmt.Fprint(os.Stderr, "> ")
		for scanner.Scan() {
			q := strings.TrimSpace(scanner.Text())
			if q == "" {
				fmt.Fprint(os.Stderr, "> ")
				continue
			}
			r, err := session.Ask(cmd.Context(), q)
			if err != nil && cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			fmt.Printf("%s [%s]\n", r.Answer, r.Emotion)
			fmt.Fprint(os.Stderr, "> ")
		}
		return scanner.Err()
	},
}

var benchFile string

var benchCmd = &cobra.Command{
	Use:   "bench [question...]",
	Short: "Ask questions in order on one thread and report response times",
	Long: `Ask each question in turn on a single thread and report the answer,
emotion and response time per question plus the average.

Questions come from the arguments or, with --file, one per line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		questions := args
		if benchFile != "" {
			data, err := os.ReadFile(benchFile)
			if err != nil {
				return err
			}
			for _, line := range strings.Split(string(data), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					questions = append(questions, line)
				}
			}
		}
		if len(questions) == 0 {
			return errors.New("no questions: pass them as arguments or with --file")
		}

		e, err := loadEnv()
		if err != nil {
			return err
		}
		session, err := newSession(e)
		if err != nil {
			return err
		}

		return api.Output(session.Batch(cmd.Context(), questions))
	},
}

func init() {
	for _, c := range []*cobra.Command{askCmd, benchCmd} {
		c.Flags().StringVar(&askAssistantID, "assistant", "", "Assistant id (default: assistant.id from config)")
	}
	benchCmd.Flags().StringVarP(&benchFile, "file", "f", "", "File with one question per line")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(benchCmd)
}
