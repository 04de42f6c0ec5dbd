package wattz

import "sync"

// DefaultErrorHistory is the default number of recent connection errors
// retained for inspection via Monitor.Errors.
const DefaultErrorHistory = 16

// errorLog is a thread-safe, bounded record of recent connection errors.
// A nil errorLog is valid and drops everything.
type errorLog struct {
	mu   sync.Mutex
	max  int
	errs []error
}

// newErrorLog creates an errorLog retaining up to max errors. If max is 0 or
// negative, history is disabled and nil is returned.
func newErrorLog(max int) *errorLog {
	if max <= 0 {
		return nil
	}
	return &errorLog{max: max}
}

// push records an error, evicting the oldest entry when full.
func (l *errorLog) push(err error) {
	if l == nil || err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.errs = append(l.errs, err)
	if len(l.errs) > l.max {
		l.errs = l.errs[len(l.errs)-l.max:]
	}
}

// all returns the recorded errors, oldest first.
func (l *errorLog) all() []error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.errs) == 0 {
		return nil
	}
	out := make([]error, len(l.errs))
	copy(out, l.errs)
	return out
}

// last returns the most recently recorded error, or nil.
func (l *errorLog) last() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.errs) == 0 {
		return nil
	}
	return l.errs[len(l.errs)-1]
}
