package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aicsr/concierge/internal/api"
	"github.com/aicsr/concierge/internal/poller"
	"github.com/aicsr/concierge/internal/store"
	"github.com/aicsr/concierge/internal/svcctx"
)

// ListFineTuneJobsResponse lists the recorded fine-tuning jobs.
type ListFineTuneJobsResponse struct {
	Jobs []*store.Job `json:"jobs"`
}

// ListFineTuneJobsEndpoint handles GET /finetune.
type ListFineTuneJobsEndpoint struct{}

func (e *ListFineTuneJobsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/finetune", e.handler
}

func (e *ListFineTuneJobsEndpoint) RequiresInit() bool { return false }

func (e *ListFineTuneJobsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobs := svcctx.JobsFrom(r.Context())
	if jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "job store not initialized")
		return
	}
	list, err := jobs.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []*store.Job{}
	}
	writeJSON(w, http.StatusOK, ListFineTuneJobsResponse{Jobs: list})
}

func (e *ListFineTuneJobsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded fine-tuning jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListFineTuneJobsResponse
			if err := client.Get(cmd.Context(), "/finetune", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetFineTuneJobResponse is the stored job plus, when checked, the outcome
// of a live status check.
type GetFineTuneJobResponse struct {
	Job   *store.Job      `json:"job"`
	Check *poller.Outcome `json:"check,omitempty"`
}

// GetFineTuneJobEndpoint handles GET /finetune/{id}. With ?check=true the
// job status is fetched from OpenAI before the stored record is returned.
type GetFineTuneJobEndpoint struct{}

func (e *GetFineTuneJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/finetune/{id}", e.handler
}

func (e *GetFineTuneJobEndpoint) RequiresInit() bool { return false }

func (e *GetFineTuneJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}

	jobs := svcctx.JobsFrom(ctx)
	if jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "job store not initialized")
		return
	}

	var resp GetFineTuneJobResponse
	if r.URL.Query().Get("check") == "true" {
		ft := svcctx.FineTuneFrom(ctx)
		if ft == nil {
			writeError(w, http.StatusServiceUnavailable, "fine-tuning not configured")
			return
		}
		out := ft.Check(ctx, id)
		resp.Check = &out
	}

	job, err := jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Job = job

	writeJSON(w, http.StatusOK, resp)
}

func (e *GetFineTuneJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show a fine-tuning job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/finetune/" + args[0]
			if check {
				path += "?check=true"
			}
			var resp GetFineTuneJobResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Fetch the live status from OpenAI first")
	return cmd
}
