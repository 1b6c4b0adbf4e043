package engine

import "sync"

type alertState struct {
	errorCount int
	alerted    bool
}

// AlertKey identifies a monitor in the tracker. Regular and SSL monitors
// draw ids from independent sequences, so a bare id is ambiguous; the kind
// keeps their alert state apart.
type AlertKey struct {
	kind string
	id   int64
}

func MonitorAlertKey(id int64) AlertKey { return AlertKey{kind: "monitor", id: id} }

func SSLAlertKey(id int64) AlertKey { return AlertKey{kind: "ssl", id: id} }

// Tracker holds per-monitor alert hysteresis state, keyed by kind and
// monitor id so monitors never share counters. Safe for concurrent jobs;
// each monitor's entry is only ever touched by its own job.
type Tracker struct {
	mu     sync.Mutex
	states map[AlertKey]*alertState
}

func NewTracker() *Tracker {
	return &Tracker{states: make(map[AlertKey]*alertState)}
}

func (t *Tracker) state(key AlertKey) *alertState {
	st, ok := t.states[key]
	if !ok {
		st = &alertState{}
		t.states[key] = st
	}
	return st
}

// RecordFailure counts one failing probe and reports whether the alert
// threshold was crossed. Crossing fires at the first failure strictly
// exceeding the threshold, resets the counter and latches the alerted flag,
// so repeated failures past the crossing stay silent. A threshold of 0
// disables alerting.
func (t *Tracker) RecordFailure(key AlertKey, threshold int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(key)
	if st.alerted {
		return false
	}
	st.errorCount++
	if threshold > 0 && st.errorCount > threshold {
		st.errorCount = 0
		st.alerted = true
		return true
	}
	return false
}

// RecordSuccess reports whether a recovery alert should fire: only on the
// first success observed while alerted. A success while not alerted leaves
// the failure count untouched.
func (t *Tracker) RecordSuccess(key AlertKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(key)
	if !st.alerted {
		return false
	}
	st.errorCount = 0
	st.alerted = false
	return true
}

// Forget drops a monitor's state, used when the monitor is deleted or
// deactivated.
func (t *Tracker) Forget(key AlertKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, key)
}
