package actuator

import "sync"

// Recorder is a test double that records actuator calls.
type Recorder struct {
	mu sync.Mutex

	// Halts and Disables count HaltAllOutputs and DisableScheduling calls.
	Halts    int
	Disables int

	// Messages records notifications in order.
	Messages []string

	// HaltError, DisableError and NotifyError, if set, are returned by the
	// matching call after it has been recorded.
	HaltError    error
	DisableError error
	NotifyError  error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// HaltAllOutputs records the call.
func (r *Recorder) HaltAllOutputs() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Halts++
	return r.HaltError
}

// DisableScheduling records the call.
func (r *Recorder) DisableScheduling() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Disables++
	return r.DisableError
}

// Notify records the message.
func (r *Recorder) Notify(msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, msg)
	return r.NotifyError
}

// Counts returns a consistent view of the recorded calls.
func (r *Recorder) Counts() (halts, disables int, messages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Halts, r.Disables, append([]string(nil), r.Messages...)
}
