package metrics

import "time"

// Recorder defines the observability hooks used by services and schedulers.
// Implementations must be safe for concurrent use.
type Recorder interface {
	IncOperation(domain, op string)
	IncCompletion(kind string)
	SetRunning(domain string, n int)
	SetSchedulerActive(family string, active bool)
	ObserveTick(family string, d time.Duration)
	IncPersistError(key string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not wired).
type NoopRecorder struct{}

func (NoopRecorder) IncOperation(string, string)       {}
func (NoopRecorder) IncCompletion(string)              {}
func (NoopRecorder) SetRunning(string, int)            {}
func (NoopRecorder) SetSchedulerActive(string, bool)   {}
func (NoopRecorder) ObserveTick(string, time.Duration) {}
func (NoopRecorder) IncPersistError(string)            {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
