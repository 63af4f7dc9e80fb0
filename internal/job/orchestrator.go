// Package job owns the three-phase remote protocol: initiate the job,
// submit one upload per discovered file under throttling and retry, and
// finalise. Per-file failures are recorded and never abort the batch;
// initiate and finalise failures abort the whole run.
package job

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightify/insightify-cli/internal/api"
	"github.com/insightify/insightify-cli/internal/events"
	"github.com/insightify/insightify-cli/internal/retry"
	"github.com/insightify/insightify-cli/internal/scan"
	"github.com/insightify/insightify-cli/internal/throttle"
)

// Phase is the orchestrator's lifecycle state.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseInitiated     Phase = "initiated"
	PhaseUploading     Phase = "uploading"
	PhaseFinalizing    Phase = "finalizing"
	PhaseComplete      Phase = "complete"
	PhaseFailed        Phase = "failed"
)

// DefaultFinalizeTimeout bounds the finalise call. Report generation is
// a long-running server operation, so this is far larger than the
// per-file timeout.
const DefaultFinalizeTimeout = 5 * time.Minute

// OrchestrationError is a fatal initiate or finalise failure. Per-file
// errors never produce one.
type OrchestrationError struct {
	Phase Phase
	Err   error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("job %s: %v", e.Phase, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

// Summary is the final result of a run. A run that reaches Complete has
// a summary even when some files failed or timed out.
type Summary struct {
	JobID      string
	Links      api.ReportLinks
	TotalFiles int
	Completed  int
	TimedOut   []string
	Failed     []Failure
	Elapsed    time.Duration
}

// Orchestrator drives one analysis job end to end.
type Orchestrator struct {
	client          *api.Client
	throttle        throttle.Config
	retry           retry.Policy
	finalizeTimeout time.Duration
	events          events.Sink
	log             zerolog.Logger
	phase           Phase

	// readFile is swapped in tests.
	readFile func(string) ([]byte, error)
}

// New builds an orchestrator. A nil sink discards events.
func New(client *api.Client, throttleCfg throttle.Config, retryPolicy retry.Policy, sink events.Sink, log zerolog.Logger) *Orchestrator {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Orchestrator{
		client:          client,
		throttle:        throttleCfg.Sanitized(log),
		retry:           retryPolicy,
		finalizeTimeout: DefaultFinalizeTimeout,
		events:          sink,
		log:             log,
		phase:           PhaseUninitialized,
		readFile:        os.ReadFile,
	}
}

// Phase returns the current lifecycle state.
func (o *Orchestrator) Phase() Phase { return o.phase }

// Run executes the whole protocol for the discovered files. The returned
// error is always an *OrchestrationError; per-file problems are reported
// through the Summary instead.
func (o *Orchestrator) Run(ctx context.Context, files []scan.FileRecord) (*Summary, error) {
	jobID, err := o.client.InitiateJob(ctx)
	if err != nil {
		return nil, o.fail(PhaseUninitialized, err)
	}
	state := newState(jobID, len(files))
	o.setPhase(PhaseInitiated)
	o.log.Info().Str("jobId", jobID).Int("files", len(files)).Msg("job initiated")

	o.setPhase(PhaseUploading)
	tasks := make([]throttle.Task[Outcome], len(files))
	for i, f := range files {
		f := f
		tasks[i] = func(ctx context.Context) Outcome {
			outcome := o.upload(ctx, jobID, f)
			state.record(outcome)
			o.publishOutcome(outcome)
			return outcome
		}
	}
	// Run returns only after every task has settled; that barrier is what
	// makes it safe to finalise.
	throttle.Run(ctx, o.throttle, tasks)

	o.setPhase(PhaseFinalizing)
	fctx, cancel := context.WithTimeout(ctx, o.finalizeTimeout)
	defer cancel()
	links, err := o.client.FinaliseJob(fctx, jobID)
	if err != nil {
		return nil, o.fail(PhaseFinalizing, err)
	}
	o.setPhase(PhaseComplete)

	completed, timedOut, failed := state.Tallies()
	return &Summary{
		JobID:      jobID,
		Links:      *links,
		TotalFiles: state.TotalFiles,
		Completed:  completed,
		TimedOut:   timedOut,
		Failed:     failed,
		Elapsed:    time.Since(state.StartTime),
	}, nil
}

// upload reads one file and submits it, wrapped in the retry policy with
// a per-attempt timeout. It always returns a settled outcome: errors are
// captured, never propagated, so one file's failure cannot cancel its
// siblings.
func (o *Orchestrator) upload(ctx context.Context, jobID string, f scan.FileRecord) Outcome {
	contents, err := o.readFile(f.AbsolutePath)
	if err != nil {
		return Outcome{Path: f.RelativePath, Status: StatusFailed, Message: fmt.Sprintf("reading file: %v", err)}
	}

	err = o.retry.Do(ctx, func(ctx context.Context) error {
		actx, cancel := context.WithTimeout(ctx, o.throttle.Timeout)
		defer cancel()
		return o.client.AnalyseFile(actx, jobID, api.FilePayload{
			FilePath:     f.RelativePath,
			FileType:     string(f.Role),
			FileContents: string(contents),
		})
	})
	switch {
	case err == nil:
		return Outcome{Path: f.RelativePath, Status: StatusSuccess}
	case isTimeout(err):
		return Outcome{Path: f.RelativePath, Status: StatusTimedOut}
	default:
		return Outcome{Path: f.RelativePath, Status: StatusFailed, Message: err.Error()}
	}
}

func (o *Orchestrator) publishOutcome(outcome Outcome) {
	switch outcome.Status {
	case StatusSuccess:
		o.events.Publish(events.UploadSucceeded(outcome.Path))
	case StatusTimedOut:
		o.events.Publish(events.UploadTimedOut(outcome.Path))
	case StatusFailed:
		o.events.Publish(events.UploadFailed(outcome.Path, outcome.Message))
	}
}

func (o *Orchestrator) setPhase(p Phase) {
	o.phase = p
	o.events.Publish(events.PhaseChanged(string(p)))
}

func (o *Orchestrator) fail(p Phase, err error) error {
	o.setPhase(PhaseFailed)
	o.log.Error().Err(err).Str("phase", string(p)).Msg("job aborted")
	return &OrchestrationError{Phase: p, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
