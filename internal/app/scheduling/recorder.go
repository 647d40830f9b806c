// internal/app/scheduling/recorder.go
package scheduling

// Recorder receives scheduling events for metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	CohortOpened()
	StudentAdded()
	CohortFull()
	EnrollRetried()
	CohortsClosed(n int64)
}

type nopRecorder struct{}

func (nopRecorder) CohortOpened()       {}
func (nopRecorder) StudentAdded()       {}
func (nopRecorder) CohortFull()         {}
func (nopRecorder) EnrollRetried()      {}
func (nopRecorder) CohortsClosed(int64) {}

// SetRecorder installs r; nil restores the no-op recorder.
func (s *Scheduler) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.rec = r
}
