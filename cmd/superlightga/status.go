package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listJobs(out, fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(out, fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

// jobSummary is the subset of a job listed by the status command
type jobSummary struct {
	ID          string  `json:"id"`
	State       string  `json:"state"`
	BestFitness float64 `json:"bestFitness"`
	Generations int     `json:"generations"`
	Steps       int     `json:"steps"`
	Config      struct {
		Problem string `json:"problem"`
		Policy  string `json:"policy"`
	} `json:"config"`
}

func listJobs(out io.Writer, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var jobs []jobSummary
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(out, "Job ID: %s\n", job.ID)
		fmt.Fprintf(out, "  State: %s\n", job.State)
		fmt.Fprintf(out, "  Problem: %s\n", orDefault(job.Config.Problem, "jump"))
		fmt.Fprintf(out, "  Policy: %s\n", orDefault(job.Config.Policy, "classic"))
		if job.Generations > 0 {
			fmt.Fprintf(out, "  Best: %.6g after %d generation(s), %d step(s)\n", job.BestFitness, job.Generations, job.Steps)
		}
		fmt.Fprintln(out)
	}

	return nil
}

// jobStatus mirrors the body of GET /api/v1/jobs/{id}/status
type jobStatus struct {
	ID                   string  `json:"id"`
	State                string  `json:"state"`
	Problem              string  `json:"problem"`
	BestFitness          float64 `json:"bestFitness"`
	Generations          int     `json:"generations"`
	Steps                int     `json:"steps"`
	Description          string  `json:"description"`
	Solved               bool    `json:"solved"`
	Converged            bool    `json:"converged"`
	Elapsed              float64 `json:"elapsed"`
	GenerationsPerSecond float64 `json:"generationsPerSecond"`
	Error                string  `json:"error"`
}

func getJobStatus(out io.Writer, url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status jobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Fprintf(out, "Job: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	fmt.Fprintf(out, "Problem: %s\n", orDefault(status.Problem, "jump"))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Steps: %d\n", status.Steps)
	fmt.Fprintf(out, "  Generations: %d\n", status.Generations)
	if status.Generations > 0 {
		fmt.Fprintf(out, "  Best Fitness: %.6g\n", status.BestFitness)
	}
	if status.Description != "" {
		fmt.Fprintf(out, "  Best: %s\n", status.Description)
	}
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.GenerationsPerSecond > 0 {
		fmt.Fprintf(out, "  Throughput: %.0f generations/sec\n", status.GenerationsPerSecond)
	}
	if status.Solved {
		fmt.Fprintln(out, "  Solved")
	}
	if status.Converged {
		fmt.Fprintln(out, "  Converged")
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
