package operation

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/pterm/pterm"
)

// TermSpinner renders operation progress as a terminal spinner.
type TermSpinner struct {
	s *spinner.Spinner
}

// NewTermSpinner creates the default spinner indicator.
func NewTermSpinner() *TermSpinner {
	return &TermSpinner{
		s: spinner.New(spinner.CharSets[14], 100*time.Millisecond),
	}
}

// Start begins spinning with the given message.
func (t *TermSpinner) Start(message string) {
	t.s.Suffix = " " + message
	t.s.Start()
}

// Update replaces the spinner message.
func (t *TermSpinner) Update(message string) {
	t.s.Suffix = " " + message
}

// Success stops the spinner and prints a success line.
func (t *TermSpinner) Success(message string) {
	t.s.Stop()
	pterm.Success.Println(message)
}

// Failure stops the spinner and prints a failure line.
func (t *TermSpinner) Failure(message string) {
	t.s.Stop()
	pterm.Error.Println(message)
}

// Stop halts the spinner without a status line.
func (t *TermSpinner) Stop() {
	t.s.Stop()
}

// Recorder is a Progress fake that records every call. Used by tests to
// assert progress transitions without a terminal.
type Recorder struct {
	Events []string
}

// Start records a start event.
func (r *Recorder) Start(message string) { r.Events = append(r.Events, "start: "+message) }

// Update records an update event.
func (r *Recorder) Update(message string) { r.Events = append(r.Events, "update: "+message) }

// Success records a success event.
func (r *Recorder) Success(message string) { r.Events = append(r.Events, "success: "+message) }

// Failure records a failure event.
func (r *Recorder) Failure(message string) { r.Events = append(r.Events, "failure: "+message) }

// Stop records a stop event.
func (r *Recorder) Stop() { r.Events = append(r.Events, "stop") }
