package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/api"
	"github.com/aicsr/concierge/internal/speech"
)

func newSpeaker(e *env) (*speech.Speaker, error) {
	client, err := e.openAI()
	if err != nil {
		return nil, err
	}
	return speech.New(speech.Config{
		TTS:         client.Speech(e.cfg.SpeechConfig()),
		Transcriber: client,
		Voice:       e.cfg.TTS.Voice,
		Format:      e.cfg.TTS.Format,
		MaxChars:    e.cfg.TTS.MaxChars,
		Logger:      e.logger,
	}), nil
}

var speakOut string

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Synthesize speech for a reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		speaker, err := newSpeaker(e)
		if err != nil {
			return err
		}

		audio, err := speaker.Speak(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := speakOut
		if out == "" {
			out = filepath.Join(e.home.AudioDir(),
				fmt.Sprintf("speech_%s.%s", time.Now().UTC().Format("20060102T150405"), e.cfg.TTS.Format))
		}
		if err := os.WriteFile(out, audio, 0o644); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
		return api.Output(map[string]any{"file": out, "bytes": len(audio)})
	},
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe a recorded question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		speaker, err := newSpeaker(e)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		text, err := speaker.Transcribe(cmd.Context(), f, filepath.Base(args[0]))
		if err != nil {
			return err
		}
		return api.Output(map[string]string{"text": text})
	},
}

func init() {
	speakCmd.Flags().StringVar(&speakOut, "out", "", "Output file (default: a timestamped file in the home audio directory)")

	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(transcribeCmd)
}
