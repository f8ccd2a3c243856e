package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для просмотра runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inspect runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunAttemptsCmd(clientFn, outputFn),
	)

	return cmd
}

func runRow(r RunResponse) []string {
	duration := ""
	if r.DurationMs != nil {
		duration = strconv.FormatInt(*r.DurationMs, 10) + "ms"
	}
	return []string{r.ID, r.JobID, r.TriggerAt, r.Status, duration, r.FirstError}
}

var runHeaders = []string{"ID", "JOB_ID", "TRIGGER_AT", "STATUS", "DURATION", "FIRST_ERROR"}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var jobID string
	var projectID string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(ListRunsOpts{
				JobID:     jobID,
				ProjectID: projectID,
				Status:    status,
				Limit:     limit,
			})
			if err != nil {
				return err
			}

			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = runRow(r)
			}

			out.Print(runHeaders, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&jobID, "job-id", "", "Filter by job ID")
	cmd.Flags().StringVar(&projectID, "project-id", "", "Filter by project ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (running, success, failed)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of runs to list")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			out.Print(runHeaders, [][]string{runRow(*run)}, run)
			return nil
		},
	}
}

func newRunAttemptsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "attempts RUN_ID",
		Short: "List execution attempts of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			attempts, err := client.ListAttempts(args[0])
			if err != nil {
				return err
			}

			headers := []string{"NO", "STATUS", "HTTP", "LATENCY", "STARTED"}
			rows := make([][]string, len(attempts))
			for i, a := range attempts {
				httpStatus := ""
				if a.HTTPStatus != nil {
					httpStatus = strconv.Itoa(*a.HTTPStatus)
				}
				rows[i] = []string{
					strconv.Itoa(a.AttemptNo),
					a.Status,
					httpStatus,
					strconv.FormatInt(a.LatencyMs, 10) + "ms",
					a.StartedAt,
				}
			}

			out.Print(headers, rows, attempts)
			return nil
		},
	}
}
