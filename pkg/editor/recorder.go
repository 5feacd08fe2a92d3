package editor

import "time"

// Recorder models the voice block's record control: a single button that
// toggles between idle and recording, with elapsed time shown while
// recording runs.
type Recorder struct {
	now       func() time.Time
	recording bool
	startedAt time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// NewRecorderWithClock exists for tests that need deterministic elapsed
// times.
func NewRecorderWithClock(now func() time.Time) *Recorder {
	return &Recorder{now: now}
}

// Toggle flips between idle and recording and reports the new state.
func (r *Recorder) Toggle() bool {
	if r.recording {
		r.recording = false
		return false
	}
	r.recording = true
	r.startedAt = r.now()
	return true
}

func (r *Recorder) Recording() bool { return r.recording }

// Elapsed returns how long the current recording has been running, or zero
// when idle.
func (r *Recorder) Elapsed() time.Duration {
	if !r.recording {
		return 0
	}
	return r.now().Sub(r.startedAt)
}
