package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/superlightga/internal/config"
	"github.com/cwbudde/superlightga/internal/problem"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// JobConfig is the request body of POST /api/v1/jobs
type JobConfig struct {
	Problem    string         `json:"problem"`
	Params     problem.Params `json:"params,omitempty"`
	Policy     string         `json:"policy,omitempty"`
	Population int            `json:"population,omitempty"`
	Survivors  int            `json:"survivors,omitempty"`
	// MaxGenerations per run; absent selects the default, 0 only seeds,
	// negative is unbounded
	MaxGenerations *int `json:"maxGenerations,omitempty"`
	// TimeoutMs per run; absent selects the default, 0 allows a single
	// generation, negative disables it
	TimeoutMs *int  `json:"timeoutMs,omitempty"`
	Steps     int   `json:"steps,omitempty"`
	Seed      int64 `json:"seed"`
	// Patience enables convergence detection when positive
	Patience int  `json:"patience,omitempty"`
	Trace    bool `json:"trace,omitempty"`
}

// Profile converts the request into a validated run profile.
func (jc JobConfig) Profile() (*config.Config, error) {
	cfg := &config.Config{Seed: jc.Seed}
	cfg.Problem.Name = jc.Problem
	cfg.Problem.Params = jc.Params
	cfg.Policy.Name = jc.Policy
	cfg.Engine.Population = jc.Population
	cfg.Engine.Survivors = jc.Survivors
	if jc.MaxGenerations != nil {
		cfg.Run.SetGenerations(*jc.MaxGenerations)
	}
	cfg.Run.Steps = jc.Steps
	if jc.TimeoutMs != nil {
		if ms := *jc.TimeoutMs; ms < 0 {
			cfg.Run.SetTimeout(-1)
		} else {
			cfg.Run.SetTimeout(time.Duration(ms) * time.Millisecond)
		}
	}
	if jc.Patience > 0 {
		cfg.Convergence.Enabled = true
		cfg.Convergence.Patience = jc.Patience
	}
	cfg.Output.Trace = jc.Trace

	if err := cfg.Complete(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Job represents an optimization job
type Job struct {
	ID          string     `json:"id"`
	State       JobState   `json:"state"`
	Config      JobConfig  `json:"config"`
	BestGenome  []float64  `json:"bestGenome,omitempty"`
	BestFitness float64    `json:"bestFitness"`
	Generations int        `json:"generations"`
	Steps       int        `json:"steps"`
	Description string     `json:"description,omitempty"`
	Solved      bool       `json:"solved,omitempty"`
	Converged   bool       `json:"converged,omitempty"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	cancels     map[string]context.CancelFunc
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		cancels:     make(map[string]context.CancelFunc),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob creates a new job with the given configuration
func (jm *JobManager) CreateJob(config JobConfig) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
	}

	jm.jobs[job.ID] = job
	return job
}

// GetJob returns a snapshot of the job with the given ID
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, false
	}
	return snapshot(job), true
}

// ListJobs returns snapshots of all jobs, oldest first
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, snapshot(job))
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
	return jobs
}

func snapshot(job *Job) Job {
	c := *job
	c.BestGenome = append([]float64(nil), job.BestGenome...)
	return c
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	running := make([]Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			running = append(running, snapshot(job))
		}
	}
	return running
}

// register stores the cancel function of a started job
func (jm *JobManager) register(id string, cancel context.CancelFunc) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.cancels[id] = cancel
}

// release drops the cancel function once the worker returned
func (jm *JobManager) release(id string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	delete(jm.cancels, id)
}

// CancelJob stops a pending or running job. Finished jobs are left untouched.
func (jm *JobManager) CancelJob(id string) error {
	jm.mu.Lock()
	job, exists := jm.jobs[id]
	if !exists {
		jm.mu.Unlock()
		return fmt.Errorf("job not found: %s", id)
	}
	if job.State.Terminal() {
		jm.mu.Unlock()
		return fmt.Errorf("job %s already %s", id, job.State)
	}
	cancel := jm.cancels[id]
	jm.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// RemoveJob forgets a finished job and drops its stream subscribers.
func (jm *JobManager) RemoveJob(id string) error {
	jm.mu.Lock()
	job, exists := jm.jobs[id]
	if !exists {
		jm.mu.Unlock()
		return fmt.Errorf("job not found: %s", id)
	}
	if !job.State.Terminal() {
		jm.mu.Unlock()
		return fmt.Errorf("job %s is still %s", id, job.State)
	}
	delete(jm.jobs, id)
	jm.mu.Unlock()

	jm.broadcaster.CleanupJob(id)
	return nil
}

// CancelAll stops every job that is still running
func (jm *JobManager) CancelAll() {
	jm.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(jm.cancels))
	for _, cancel := range jm.cancels {
		cancels = append(cancels, cancel)
	}
	jm.mu.RUnlock()

	for _, cancel := range cancels {
		cancel()
	}
}
