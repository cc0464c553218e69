package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/api"
	"github.com/aicsr/concierge/internal/svcctx"
)

// SpeakRequest is the body of POST /speak.
type SpeakRequest struct {
	Text string `json:"text"`
}

// SpeakEndpoint handles POST /speak and returns MP3 audio.
type SpeakEndpoint struct{}

func (e *SpeakEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/speak", e.handler
}

func (e *SpeakEndpoint) RequiresInit() bool { return true }

func (e *SpeakEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	speaker := svcctx.SpeakerFrom(r.Context())
	if speaker == nil {
		writeError(w, http.StatusServiceUnavailable, "speech not configured")
		return
	}

	audio, err := speaker.Speak(r.Context(), req.Text)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

func (e *SpeakEndpoint) Command(getServerURL func() string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Synthesize speech on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			audio, err := client.PostRaw(cmd.Context(), "/speak", SpeakRequest{Text: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, audio, 0o644); err != nil {
				return fmt.Errorf("failed to write audio: %w", err)
			}
			return api.Output(map[string]any{"file": out, "bytes": len(audio)})
		},
	}
	cmd.Flags().StringVar(&out, "out", "speech.mp3", "Output file")
	return cmd
}
