package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/api"
	"github.com/aicsr/concierge/internal/poller"
	"github.com/aicsr/concierge/internal/reply"
	"github.com/aicsr/concierge/internal/svcctx"
)

// AnswerRequest is the body of POST /answer.
type AnswerRequest struct {
	OwnerID string `json:"ownerId"`
	Query   string `json:"query"`
}

// AnswerResponse carries the assistant reply. Message holds the reply in the
// "Answer: ... Emotion: ..." form and RagTime the handling time in
// milliseconds.
type AnswerResponse struct {
	Message  string        `json:"message"`
	Answer   string        `json:"answer"`
	Emotion  reply.Emotion `json:"emotion"`
	Status   poller.Status `json:"status,omitempty"`
	ThreadID string        `json:"threadId,omitempty"`
	RagTime  float64       `json:"ragTime"`
}

// AnswerErrorResponse is returned for unusable requests.
type AnswerErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// AnswerEndpoint handles POST /answer.
type AnswerEndpoint struct{}

func (e *AnswerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/answer", e.handler
}

func (e *AnswerEndpoint) RequiresInit() bool { return true }

func (e *AnswerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AnswerErrorResponse{
			Message: "Invalid input or internal error",
			Error:   err.Error(),
		})
		return
	}

	sessions := svcctx.SessionsFrom(r.Context())
	if sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}

	rep, err := sessions.For(req.OwnerID).Ask(r.Context(), req.Query)
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("answer failed", "owner_id", req.OwnerID, "error", err)
	}

	parsed := reply.Reply{Answer: rep.Answer, Emotion: rep.Emotion}
	writeJSON(w, http.StatusOK, AnswerResponse{
		Message:  parsed.String(),
		Answer:   rep.Answer,
		Emotion:  rep.Emotion,
		Status:   rep.Status,
		ThreadID: rep.ThreadID,
		RagTime:  float64(time.Since(start).Microseconds()) / 1000,
	})
}

func (e *AnswerEndpoint) Command(getServerURL func() string) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "answer <question>",
		Short: "Ask the assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp AnswerResponse
			req := AnswerRequest{OwnerID: owner, Query: strings.Join(args, " ")}
			if err := client.Post(cmd.Context(), "/answer", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner id; questions from one owner share a thread")
	return cmd
}
