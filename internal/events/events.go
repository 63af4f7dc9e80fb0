// Package events defines the discrete progress events emitted by the
// discovery and upload pipeline. The core never writes to the console
// directly; it publishes events to a Sink and lets the presentation
// layer decide how (and whether) to render them.
package events

import "time"

// Type identifies the kind of pipeline event.
type Type string

const (
	// TypeFileDiscovered indicates a candidate file passed the ignore rules.
	TypeFileDiscovered Type = "file_discovered"
	// TypeFileClassified indicates a file was assigned a role and selected for upload.
	TypeFileClassified Type = "file_classified"
	// TypeUploadSucceeded indicates a file upload completed successfully.
	TypeUploadSucceeded Type = "upload_succeeded"
	// TypeUploadTimedOut indicates a file upload exceeded its request timeout.
	TypeUploadTimedOut Type = "upload_timed_out"
	// TypeUploadFailed indicates a file upload failed after retries were exhausted.
	TypeUploadFailed Type = "upload_failed"
	// TypePhaseChanged indicates the job orchestrator moved to a new phase.
	TypePhaseChanged Type = "phase_changed"
)

// Event is a single pipeline occurrence. Path and Role are set for
// file-scoped events; Phase is set for phase transitions.
type Event struct {
	Type      Type
	Path      string
	Role      string
	Phase     string
	Message   string
	Timestamp time.Time
}

// Sink receives pipeline events. Implementations must be safe for
// concurrent use: upload events are published from multiple goroutines.
type Sink interface {
	Publish(Event)
}

// NopSink discards all events.
type NopSink struct{}

// Publish implements Sink.
func (NopSink) Publish(Event) {}

// FileDiscovered builds a file-discovered event.
func FileDiscovered(path string) Event {
	return Event{Type: TypeFileDiscovered, Path: path, Timestamp: time.Now()}
}

// FileClassified builds a file-classified event.
func FileClassified(path, role string) Event {
	return Event{Type: TypeFileClassified, Path: path, Role: role, Timestamp: time.Now()}
}

// UploadSucceeded builds an upload-succeeded event.
func UploadSucceeded(path string) Event {
	return Event{Type: TypeUploadSucceeded, Path: path, Timestamp: time.Now()}
}

// UploadTimedOut builds an upload-timed-out event.
func UploadTimedOut(path string) Event {
	return Event{Type: TypeUploadTimedOut, Path: path, Timestamp: time.Now()}
}

// UploadFailed builds an upload-failed event carrying the captured error message.
func UploadFailed(path, message string) Event {
	return Event{Type: TypeUploadFailed, Path: path, Message: message, Timestamp: time.Now()}
}

// PhaseChanged builds a phase-transition event.
func PhaseChanged(phase string) Event {
	return Event{Type: TypePhaseChanged, Phase: phase, Timestamp: time.Now()}
}
