package job

import (
	"sync"
	"time"
)

// Status classifies one file's final upload outcome.
type Status int

const (
	StatusSuccess Status = iota
	StatusTimedOut
	StatusFailed
)

// Outcome is the settled result of one file's upload attempt sequence.
type Outcome struct {
	Path    string
	Status  Status
	Message string
}

// Failure records a failed file and the captured error message.
type Failure struct {
	Path    string
	Message string
}

// State tracks one job's progress. Upload tasks settle concurrently, so
// every mutation goes through the mutex.
type State struct {
	mu sync.Mutex

	JobID      string
	StartTime  time.Time
	TotalFiles int

	completed int
	timedOut  []string
	failed    []Failure
}

func newState(jobID string, totalFiles int) *State {
	return &State{
		JobID:      jobID,
		StartTime:  time.Now(),
		TotalFiles: totalFiles,
	}
}

func (s *State) record(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch o.Status {
	case StatusSuccess:
		s.completed++
	case StatusTimedOut:
		s.timedOut = append(s.timedOut, o.Path)
	case StatusFailed:
		s.failed = append(s.failed, Failure{Path: o.Path, Message: o.Message})
	}
}

// Tallies returns the settled counts. After every task has settled,
// completed + len(timedOut) + len(failed) equals TotalFiles.
func (s *State) Tallies() (completed int, timedOut []string, failed []Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed, append([]string(nil), s.timedOut...), append([]Failure(nil), s.failed...)
}
