package collection

import "sync"

// NoticeKind classifies a Notice.
type NoticeKind string

const (
	KindSuccess NoticeKind = "success"
	KindError   NoticeKind = "error"
)

// Notice is a user-facing outcome of a store operation.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

// Notifier receives notices. Notify is called synchronously from the
// goroutine running the store operation.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

type discard struct{}

func (discard) Notify(Notice) {}

// Recorder is a Notifier that keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Drain returns the recorded notices and clears the recorder.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}
