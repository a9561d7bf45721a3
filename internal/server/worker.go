package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/superlightga/internal/plan"
	"github.com/cwbudde/superlightga/internal/store"
	"github.com/cwbudde/superlightga/pkg/ga"
)

// runJob executes an optimization job in the background.
// If st is not nil the final report is archived under the job ID. Traces are
// written only when st is a filesystem store and the job asked for them.
func runJob(ctx context.Context, jm *JobManager, st store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	profile, err := job.Config.Profile()
	if err != nil {
		markJobFailed(jm, jobID, job.Config.Problem, err)
		return err
	}
	name := profile.Problem.Name

	p, err := profile.NewProblem()
	if err != nil {
		markJobFailed(jm, jobID, name, err)
		return err
	}
	sc, err := profile.SessionConfig()
	if err != nil {
		markJobFailed(jm, jobID, name, err)
		return err
	}

	// Check for cancellation before doing any work
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID, name)
		return ctx.Err()
	default:
	}

	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}
	jobsRunning.Inc()
	defer jobsRunning.Dec()

	slog.Info("Starting job", "job_id", jobID, "problem", name, "policy", sc.Policy.Name, "steps", sc.Steps)

	opts := []plan.Option{
		plan.WithGenerationObserver(func(step int, stats ga.GenerationStats) {
			recordGeneration(name, stats.Evaluations)
			jm.UpdateJob(jobID, func(j *Job) {
				j.Generations++
				j.BestFitness = stats.BestFitness
			})
		}),
	}

	if fs, ok := st.(*store.FSStore); ok && job.Config.Trace {
		tw, err := store.NewTraceWriter(fs.BaseDir(), jobID, false)
		if err != nil {
			markJobFailed(jm, jobID, name, err)
			return err
		}
		defer tw.Close()
		opts = append(opts, plan.WithTrace(tw))
	}

	session, err := plan.NewSession(p, sc, opts...)
	if err != nil {
		markJobFailed(jm, jobID, name, err)
		return err
	}

	// Start progress monitoring goroutine
	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, progressDone)

	start := time.Now()
	res, err := session.Solve(ctx, sc.Steps, func(sr plan.StepResult) {
		recordStep(name, sr.Elapsed.Seconds())
		jm.UpdateJob(jobID, func(j *Job) {
			j.Steps = sr.Step + 1
			j.Description = sr.Description
		})
	})
	close(progressDone)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID, name)
			return ctx.Err()
		}
		markJobFailed(jm, jobID, name, err)
		return err
	}

	if st != nil {
		if err := st.SaveReport(jobID, session.Report(jobID, res)); err != nil {
			slog.Warn("Failed to save report", "job_id", jobID, "error", err)
		}
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestGenome = res.BestGenome
		j.BestFitness = res.BestFitness
		j.Generations = res.Generations
		j.Steps = res.Steps
		j.Description = res.Description
		j.Solved = res.Solved
		j.Converged = res.Converged
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}
	recordJobFinished(name, StateCompleted)

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"steps", res.Steps,
		"generations", res.Generations,
		"best_fitness", res.BestFitness,
		"solved", res.Solved,
	)

	broadcastJob(jm, jobID)
	return nil
}

// monitorProgress periodically broadcasts progress events during optimization
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !broadcastJob(jm, jobID) {
				return
			}
		}
	}
}

// broadcastJob sends the current job state to stream subscribers
func broadcastJob(jm *JobManager, jobID string) bool {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return false
	}
	jm.broadcaster.Broadcast(eventFromJob(job))
	return true
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID, problem string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	recordJobFinished(problem, StateFailed)
	broadcastJob(jm, jobID)
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID, problem string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	recordJobFinished(problem, StateCancelled)
	broadcastJob(jm, jobID)
	slog.Info("Job cancelled", "job_id", jobID)
}
