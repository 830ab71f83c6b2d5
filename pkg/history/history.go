package history

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/telemetry"
)

const (
	DefaultWindow = time.Second
	DefaultLimit  = 10
)

type Option func(*History)

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.Clock) Option {
	return func(h *History) { h.burst.clock = c }
}

// WithWindow sets how long a burst of edits stays open after its last edit.
func WithWindow(d time.Duration) Option {
	return func(h *History) { h.burst.window = d }
}

// WithLimit sets how many undo steps are retained.
func WithLimit(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.limit = n
		}
	}
}

// History records undo steps for a store.
//
// A step is recorded when the first edit of a burst arrives. It keeps the
// document as it was just before that edit (the undo target) and right
// after it. Edits that follow within the window join the burst and only
// refresh latest. Undoing a step stores the live document on it, so redo
// returns to where the burst ended.
type History struct {
	mu     sync.Mutex
	store  *editor.Store
	limit  int
	steps  []*step
	cursor int
	latest *models.Message
	burst  debouncer

	unsubscribe func()
}

type step struct {
	before  *models.Message
	leading *models.Message
	after   *models.Message
}

// New subscribes to store and seeds the history with its current document.
func New(store *editor.Store, opts ...Option) *History {
	h := &History{
		store: store,
		limit: DefaultLimit,
		burst: debouncer{clock: clock.New(), window: DefaultWindow},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.latest = store.Snapshot()
	h.unsubscribe = store.Subscribe(h.onChange)
	return h
}

func (h *History) onChange(c editor.Change) {
	if c.Origin == editor.OriginHistory {
		return
	}
	snap := h.store.Snapshot()
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.latest
	h.latest = snap
	if !h.burst.leading() {
		return
	}
	h.steps = append(h.steps[:h.cursor], &step{before: prev, leading: snap})
	if over := len(h.steps) - h.limit; over > 0 {
		h.steps = h.steps[over:]
	}
	h.cursor = len(h.steps)
	telemetry.HistoryDepth.Set(float64(h.cursor))
	logger.Debug("history_step_recorded", "op", c.Op, "revision", c.Revision, "steps", h.cursor)
}

// Undo restores the document from before the most recent step. It reports
// false when there is nothing to undo.
func (h *History) Undo() bool {
	h.mu.Lock()
	if h.cursor == 0 {
		h.mu.Unlock()
		return false
	}
	h.cursor--
	st := h.steps[h.cursor]
	st.after = h.latest
	h.latest = st.before
	h.burst.cancel()
	telemetry.HistoryDepth.Set(float64(h.cursor))
	h.mu.Unlock()

	h.store.Restore(st.before)
	telemetry.HistoryMoves.WithLabelValues("undo").Inc()
	return true
}

// Redo reapplies the step undone last, restoring the document as it was
// when that undo happened. It reports false when there is nothing to redo.
func (h *History) Redo() bool {
	h.mu.Lock()
	if h.cursor >= len(h.steps) {
		h.mu.Unlock()
		return false
	}
	st := h.steps[h.cursor]
	h.cursor++
	h.latest = st.after
	h.burst.cancel()
	telemetry.HistoryDepth.Set(float64(h.cursor))
	h.mu.Unlock()

	h.store.Restore(st.after)
	telemetry.HistoryMoves.WithLabelValues("redo").Inc()
	return true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.steps)
}

// Len is the number of recorded steps, including any that can be redone.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.steps)
}

// Position is the number of steps that can currently be undone.
func (h *History) Position() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

// Leading returns a copy of the document right after the first edit of
// step i, or nil when i is out of range.
func (h *History) Leading(i int) *models.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < 0 || i >= len(h.steps) {
		return nil
	}
	return h.steps[i].leading.Clone()
}

// Reset forgets every step and starts over from the current document.
func (h *History) Reset() {
	snap := h.store.Snapshot()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steps = nil
	h.cursor = 0
	h.latest = snap
	h.burst.cancel()
	telemetry.HistoryDepth.Set(0)
}

// Close stops recording.
func (h *History) Close() {
	h.unsubscribe()
}

// debouncer is the pending-burst handle. A burst opens on its leading edit
// and stays open while each following edit arrives within window of the
// previous one.
type debouncer struct {
	clock  clock.Clock
	window time.Duration
	last   time.Time
	open   bool
}

// leading reports whether an edit arriving now opens a new burst. Either way
// the window is extended from now.
func (d *debouncer) leading() bool {
	now := d.clock.Now()
	lead := !d.open || now.Sub(d.last) >= d.window
	d.open = true
	d.last = now
	return lead
}

func (d *debouncer) cancel() {
	d.open = false
}
