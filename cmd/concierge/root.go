package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/api"
	"github.com/aicsr/concierge/internal/config"
	"github.com/aicsr/concierge/internal/home"
	"github.com/aicsr/concierge/internal/metrics"
	"github.com/aicsr/concierge/internal/providers"
	"github.com/aicsr/concierge/internal/store"
	"github.com/aicsr/concierge/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Restaurant AI assistant backend",
	Long: `Concierge answers restaurant questions through an OpenAI assistant,
fine-tunes chat models on owner-supplied documents and speaks the replies.

It covers:
  - Assistant conversations with run polling and Answer/Emotion replies
  - Q&A dataset generation from PDFs and fine-tuning job tracking
  - Text to speech and transcription
  - An HTTP server for the web front end`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.concierge/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "concierge home directory (default: ~/.concierge)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
		metrics.MustRegister()
	}

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger. Logs go to stderr so that command
// output on stdout stays machine readable.
func newLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// env bundles what most commands need.
type env struct {
	logger *slog.Logger
	home   *home.Dir
	cfgMgr *config.Manager
	cfg    *config.Config
}

func loadEnv() (*env, error) {
	logger := newLogger()

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	mgr, err := config.NewManager(path)
	if err != nil {
		return nil, err
	}
	if f := mgr.File(); f != "" {
		logger.Debug("config loaded", "file", f)
	}

	return &env{logger: logger, home: h, cfgMgr: mgr, cfg: mgr.Get()}, nil
}

var errNoAPIKey = errors.New("no OpenAI API key: set OPENAI_API_KEY or openai.api_key in the config file")

func (e *env) openAI() (*providers.OpenAIClient, error) {
	oc := e.cfg.OpenAIConfig()
	if oc.APIKey == "" {
		return nil, errNoAPIKey
	}
	oc.Logger = e.logger
	return providers.NewOpenAIClient(oc), nil
}

func (e *env) openStore() (*store.Store, error) {
	path := e.home.StorePath(e.cfg.Store.Path)
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store %s: %w", path, err)
	}
	return s, nil
}
