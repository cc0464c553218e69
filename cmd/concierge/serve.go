package main

import (
	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/assistant"
	"github.com/aicsr/concierge/internal/config"
	"github.com/aicsr/concierge/internal/finetune"
	"github.com/aicsr/concierge/internal/server"
	"github.com/aicsr/concierge/internal/svcctx"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the concierge server",
	Long: `Start the concierge HTTP server.

The server provides:
  - GET  /health         - Basic server health check
  - GET  /status         - Configuration and session summary
  - POST /answer         - Ask the assistant ({"ownerId", "query"})
  - POST /chat           - Ask the fine-tuned model
  - GET  /finetune       - List fine-tuning jobs
  - GET  /finetune/{id}  - Show a job (?check=true refreshes it)
  - POST /speak          - Synthesize speech
  - GET  /metrics        - Prometheus metrics

Without an OpenAI API key only health, status, job listing and metrics work.
Changes to the config file are picked up while running.

Examples:
  concierge serve                    # Start on the configured port
  concierge serve --port 3000        # Start on custom port
  concierge serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := loadEnv()
		if err != nil {
			return err
		}

		jobs, err := e.openStore()
		if err != nil {
			return err
		}
		defer jobs.Close()

		services := &svcctx.Services{
			Jobs:      jobs,
			ConfigMgr: e.cfgMgr,
			Logger:    e.logger,
			Home:      e.home,
		}

		client, err := e.openAI()
		switch {
		case err != nil:
			e.logger.Warn("OpenAI services disabled", "error", err)
		default:
			services.Sessions = assistant.NewSessions(client, sessionConfig(e.cfg, e))

			fc := e.cfg.FineTuneConfig()
			fc.Logger = e.logger
			services.FineTune = finetune.New(client, jobs, fc)

			if services.Speaker, err = newSpeaker(e); err != nil {
				return err
			}

			e.cfgMgr.OnChange(func(c *config.Config) {
				services.Sessions.Reconfigure(sessionConfig(c, e))
				e.logger.Info("config reloaded, assistant sessions reset", "assistant_id", c.Assistant.ID)
			})
			e.cfgMgr.WatchConfig()
		}

		host := serveHost
		if host == "" {
			host = e.cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = e.cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:     host,
			Port:     port,
			Services: services,
			Logger:   e.logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func sessionConfig(c *config.Config, e *env) assistant.Config {
	poll := c.RunPoll()
	poll.Logger = e.logger
	return assistant.Config{AssistantID: c.Assistant.ID, Poll: poll, Logger: e.logger}
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port)")

	rootCmd.AddCommand(serveCmd)
}
