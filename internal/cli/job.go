package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewJobCmd создаёт группу команд для управления jobs.
func NewJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage jobs",
	}

	cmd.AddCommand(
		newJobListCmd(clientFn, outputFn),
		newJobCreateCmd(clientFn, outputFn),
		newJobShowCmd(clientFn, outputFn),
		newJobPauseCmd(clientFn, outputFn),
		newJobResumeCmd(clientFn, outputFn),
		newJobTuneCmd(clientFn, outputFn),
		newJobDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func jobRow(j JobResponse) []string {
	return []string{
		j.ID, j.Name, j.Kind, j.CronExpr, j.Timezone,
		strconv.FormatBool(j.Paused), j.NextAt,
	}
}

var jobHeaders = []string{"ID", "NAME", "KIND", "CRON", "TIMEZONE", "PAUSED", "NEXT_AT"}

func newJobListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var projectID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs(ListJobsOpts{ProjectID: projectID, Limit: limit})
			if err != nil {
				return err
			}

			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				rows[i] = jobRow(j)
			}

			out.Print(jobHeaders, rows, jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project-id", "", "Filter by project ID")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of jobs to list")

	return cmd
}

func newJobCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var kind string
	var cronExpr string
	var timezone string
	var targetURL string
	var method string
	var headers []string
	var retryMax int
	var timeoutMs int
	var concurrency int

	cmd := &cobra.Command{
		Use:   "create PROJECT_ID",
		Short: "Create a job in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateJobRequest{
				Name:      name,
				Kind:      kind,
				CronExpr:  cronExpr,
				Timezone:  timezone,
				TargetURL: targetURL,
				Method:    method,
			}

			if len(headers) > 0 {
				req.Headers = make(map[string]string)
				for _, kv := range headers {
					parts := strings.SplitN(kv, "=", 2)
					if len(parts) != 2 {
						return fmt.Errorf("invalid header format %q, expected KEY=VALUE", kv)
					}
					req.Headers[parts[0]] = parts[1]
				}
			}

			if cmd.Flags().Changed("retry-max") {
				req.RetryMax = &retryMax
			}
			if cmd.Flags().Changed("timeout-ms") {
				req.TimeoutMs = &timeoutMs
			}
			if cmd.Flags().Changed("concurrency") {
				req.Concurrency = &concurrency
			}

			job, err := client.CreateJob(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job created: %s", job.ID))
			out.Print(jobHeaders, [][]string{jobRow(*job)}, job)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Job name (required)")
	cmd.Flags().StringVar(&kind, "kind", "http", "Action kind (http)")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression, e.g. '0 3 * * *' (required)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone, e.g. 'Europe/Berlin'")
	cmd.Flags().StringVar(&targetURL, "target-url", "", "Target URL for http jobs")
	cmd.Flags().StringVar(&method, "method", "", "HTTP method (default GET)")
	cmd.Flags().StringSliceVar(&headers, "header", nil, "Request header as KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&retryMax, "retry-max", 0, "Maximum retries after the first delivery")
	cmd.Flags().IntVar(&timeoutMs, "timeout-ms", 0, "Action timeout in milliseconds")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent runs limit")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("cron")

	return cmd
}

func newJobShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.GetJob(args[0])
			if err != nil {
				return err
			}

			out.Print(jobHeaders, [][]string{jobRow(*job)}, job)
			return nil
		},
	}
}

func newJobPauseCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pause ID",
		Short: "Pause a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.PauseJob(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job paused: %s", job.ID))
			out.Print(jobHeaders, [][]string{jobRow(*job)}, job)
			return nil
		},
	}
}

func newJobResumeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "resume ID",
		Short: "Resume a paused job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.ResumeJob(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job resumed: %s", job.ID))
			out.Print(jobHeaders, [][]string{jobRow(*job)}, job)
			return nil
		},
	}
}

func newJobTuneCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var retryMax int
	var timeoutMs int
	var concurrency int

	cmd := &cobra.Command{
		Use:   "tune ID",
		Short: "Update job retry/timeout/concurrency settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var req UpdateJobTuningRequest
			if cmd.Flags().Changed("retry-max") {
				req.RetryMax = &retryMax
			}
			if cmd.Flags().Changed("timeout-ms") {
				req.TimeoutMs = &timeoutMs
			}
			if cmd.Flags().Changed("concurrency") {
				req.Concurrency = &concurrency
			}

			job, err := client.UpdateJobTuning(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job updated: %s", job.ID))
			out.Print(
				[]string{"ID", "RETRY_MAX", "TIMEOUT_MS", "CONCURRENCY"},
				[][]string{{
					job.ID,
					strconv.Itoa(job.RetryMax),
					strconv.Itoa(job.TimeoutMs),
					strconv.Itoa(job.Concurrency),
				}},
				job,
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&retryMax, "retry-max", 0, "Maximum retries after the first delivery")
	cmd.Flags().IntVar(&timeoutMs, "timeout-ms", 0, "Action timeout in milliseconds")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent runs limit")

	return cmd
}

func newJobDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a job with its runs and attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteJob(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job deleted: %s", args[0]))
			return nil
		},
	}
}
