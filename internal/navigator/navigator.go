// Package navigator tracks the current record, the verdicts given this
// session, and the automatic advance once both sides of a record are judged.
package navigator

import (
	"fmt"
	"sync"
	"time"

	vimage "anpr-validator/internal/image"
	"anpr-validator/internal/verdict"
)

// Default auto-advance delays.
const (
	DefaultDelay       = 300 * time.Millisecond
	DefaultReasonDelay = 500 * time.Millisecond
)

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d on another goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clock struct{}

func (clock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Key identifies one judged image: a record index and a side.
type Key struct {
	Index int
	Side  vimage.Side
}

// String formats the key as used in exports, e.g. "12_front".
func (k Key) String() string {
	return fmt.Sprintf("%d_%s", k.Index, k.Side.Key())
}

// Stats summarizes the verdicts given this session.
type Stats struct {
	Total     int // records in the dataset
	Judged    int // judged (index, side) pairs
	Correct   int
	Incorrect int
}

// Navigator is safe for concurrent use. Callbacks run without the lock held.
type Navigator struct {
	mu          sync.Mutex
	total       int
	index       int
	judged      map[Key]verdict.Verdict
	sched       Scheduler
	delay       time.Duration
	reasonDelay time.Duration
	pending     Timer
	gen         uint64
	onMove      func(index int)
}

// New creates a navigator over total records starting at index 0. A nil
// scheduler uses time.AfterFunc.
func New(total int, sched Scheduler) *Navigator {
	if sched == nil {
		sched = clock{}
	}
	return &Navigator{
		total:       total,
		judged:      make(map[Key]verdict.Verdict),
		sched:       sched,
		delay:       DefaultDelay,
		reasonDelay: DefaultReasonDelay,
	}
}

// SetDelays sets the auto-advance delay after a correct verdict and after a
// failure reason.
func (n *Navigator) SetDelays(correct, reason time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delay = correct
	n.reasonDelay = reason
}

// OnMove registers fn to be called after every index change.
func (n *Navigator) OnMove(fn func(index int)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onMove = fn
}

// Total returns the number of records.
func (n *Navigator) Total() int {
	return n.total
}

// Current returns the current record index.
func (n *Navigator) Current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index
}

// Advance moves to the next record. It returns false at the last record.
func (n *Navigator) Advance() bool {
	return n.move(func(i int) int { return i + 1 })
}

// Retreat moves to the previous record. It returns false at the first record.
func (n *Navigator) Retreat() bool {
	return n.move(func(i int) int { return i - 1 })
}

// Jump moves to index, clamped to the valid range.
func (n *Navigator) Jump(index int) bool {
	return n.move(func(int) int { return index })
}

func (n *Navigator) move(next func(int) int) bool {
	n.mu.Lock()
	n.cancel()
	moved := n.setIndex(next(n.index))
	fn := n.onMove
	idx := n.index
	n.mu.Unlock()

	if moved && fn != nil {
		fn(idx)
	}
	return moved
}

func (n *Navigator) setIndex(i int) bool {
	if n.total == 0 {
		return false
	}
	i = max(0, min(i, n.total-1))
	if i == n.index {
		return false
	}
	n.index = i
	return true
}

// cancel drops any pending auto-advance. Callers hold n.mu.
func (n *Navigator) cancel() {
	n.gen++
	if n.pending != nil {
		n.pending.Stop()
		n.pending = nil
	}
}

// Mark records v for side of the current record. It returns true when both
// sides of the record are now judged, in which case an advance is scheduled
// unless this is the last record.
func (n *Navigator) Mark(side vimage.Side, v verdict.Verdict) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.markAt(n.index, side, v)
}

// MarkAt records v for side of the record at index. Only a mark on the
// current record can schedule an advance; one that arrives after the
// navigator has moved on is recorded without moving again.
func (n *Navigator) MarkAt(index int, side vimage.Side, v verdict.Verdict) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.markAt(index, side, v)
}

func (n *Navigator) markAt(index int, side vimage.Side, v verdict.Verdict) bool {
	if index < 0 || index >= n.total {
		return false
	}
	n.judged[Key{index, side}] = v
	if !n.fullyJudged(index) {
		return false
	}
	if index == n.index && index < n.total-1 {
		d := n.delay
		if !v.IsCorrect() {
			d = n.reasonDelay
		}
		n.schedule(d)
	}
	return true
}

func (n *Navigator) schedule(d time.Duration) {
	n.cancel()
	gen := n.gen
	n.pending = n.sched.AfterFunc(d, func() { n.fire(gen) })
}

func (n *Navigator) fire(gen uint64) {
	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.pending = nil
	moved := n.setIndex(n.index + 1)
	fn := n.onMove
	idx := n.index
	n.mu.Unlock()

	if moved && fn != nil {
		fn(idx)
	}
}

// Pending reports whether an auto-advance is scheduled.
func (n *Navigator) Pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pending != nil
}

// Cancel drops any pending auto-advance.
func (n *Navigator) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancel()
}

// IsFullyJudged reports whether both sides of record index are judged.
func (n *Navigator) IsFullyJudged(index int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fullyJudged(index)
}

func (n *Navigator) fullyJudged(index int) bool {
	for _, s := range vimage.Sides {
		if _, ok := n.judged[Key{index, s}]; !ok {
			return false
		}
	}
	return true
}

// Verdict returns the verdict given this session for (index, side).
func (n *Navigator) Verdict(index int, side vimage.Side) verdict.Verdict {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.judged[Key{index, side}]
}

// Stats returns the session statistics.
func (n *Navigator) Stats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()

	st := Stats{Total: n.total, Judged: len(n.judged)}
	for _, v := range n.judged {
		if v.IsCorrect() {
			st.Correct++
		} else {
			st.Incorrect++
		}
	}
	return st
}

// Judgements returns the session verdicts keyed by Key.String.
func (n *Navigator) Judgements() map[string]string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make(map[string]string, len(n.judged))
	for k, v := range n.judged {
		out[k.String()] = string(v)
	}
	return out
}
