package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/api"
	"github.com/aicsr/concierge/internal/providers"
	"github.com/aicsr/concierge/internal/reply"
	"github.com/aicsr/concierge/internal/svcctx"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages []providers.Message `json:"messages"`
}

// ChatResponse is the fine-tuned model's reply.
type ChatResponse struct {
	Answer  string        `json:"answer"`
	Emotion reply.Emotion `json:"emotion"`
	Error   string        `json:"error,omitempty"`
}

// ChatEndpoint handles POST /chat against the fine-tuned model.
type ChatEndpoint struct{}

func (e *ChatEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/chat", e.handler
}

func (e *ChatEndpoint) RequiresInit() bool { return true }

func (e *ChatEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	ft := svcctx.FineTuneFrom(r.Context())
	if ft == nil {
		writeError(w, http.StatusServiceUnavailable, "fine-tuning not configured")
		return
	}

	// Chat always yields a usable reply; the error is informational.
	rep, err := ft.Chat(r.Context(), req.Messages)
	resp := ChatResponse{Answer: rep.Answer, Emotion: rep.Emotion}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ChatEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the fine-tuned model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := ChatRequest{Messages: []providers.Message{{Role: "user", Content: strings.Join(args, " ")}}}
			var resp ChatResponse
			if err := client.Post(cmd.Context(), "/chat", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
