package importer

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

// RunState is the lifecycle state of a background run.
type RunState string

const (
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
)

// Run describes one background import.
type Run struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	State      RunState   `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Summary    *Summary   `json:"summary,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Runner executes imports in the background, one at a time, and keeps
// their results for later inspection.
type Runner struct {
	importer *Importer
	ctx      context.Context
	logger   *slog.Logger

	mu     sync.RWMutex
	active string
	runs   map[string]*Run
	wg     sync.WaitGroup
}

// NewRunner creates a Runner. Runs are canceled when ctx ends.
func NewRunner(ctx context.Context, im *Importer, logger *slog.Logger) *Runner {
	return &Runner{
		importer: im,
		ctx:      ctx,
		logger:   logger.With("component", "runner"),
		runs:     make(map[string]*Run),
	}
}

// Start launches a scrape import and returns its id immediately.
func (r *Runner) Start() (string, error) {
	return r.start(SourceScrape, r.importer.Run)
}

// StartSynthetic launches a synthetic import and returns its id
// immediately.
func (r *Runner) StartSynthetic() (string, error) {
	return r.start(SourceSynthetic, r.importer.RunSynthetic)
}

func (r *Runner) start(source string, fn func(context.Context) (*Summary, error)) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		return "", types.ErrRunInProgress
	}

	run := &Run{
		ID:        uuid.NewString(),
		Source:    source,
		State:     RunRunning,
		StartedAt: time.Now().UTC(),
	}
	r.runs[run.ID] = run
	r.active = run.ID

	r.wg.Add(1)
	go r.execute(run.ID, fn)

	r.logger.Info("import initiated", "run_id", run.ID, "source", source)
	return run.ID, nil
}

func (r *Runner) execute(id string, fn func(context.Context) (*Summary, error)) {
	defer r.wg.Done()

	sum, err := fn(r.ctx)
	finished := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.runs[id]
	run.Summary = sum
	run.FinishedAt = &finished
	run.State = RunCompleted
	if err != nil {
		run.State = RunFailed
		run.Error = err.Error()
		r.logger.Error("import run failed", "run_id", id, "error", err)
	}
	r.active = ""
}

// Get returns a copy of the run with id.
func (r *Runner) Get(id string) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// List returns copies of all runs, newest first.
func (r *Runner) List() []Run {
	r.mu.RLock()
	out := make([]Run, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, *run)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Active returns the id of the running import, if any.
func (r *Runner) Active() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, r.active != ""
}

// Wait blocks until every started run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
