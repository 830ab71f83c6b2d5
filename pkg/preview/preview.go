package preview

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/telemetry"
)

const DefaultDelay = 250 * time.Millisecond

type Option func(*Preview)

func WithClock(c clock.Clock) Option {
	return func(p *Preview) { p.clock = c }
}

func WithDelay(d time.Duration) Option {
	return func(p *Preview) { p.delay = d }
}

// Preview keeps a View of a store up to date. The view is derived again from
// a fresh snapshot once no change has arrived for the delay.
type Preview struct {
	store    *editor.Store
	renderer Renderer
	clock    clock.Clock
	delay    time.Duration

	mu      sync.Mutex
	current *View
	timer   *clock.Timer
	closed  bool

	unsubscribe func()
}

// New renders the current document right away and then follows the store.
// A nil renderer means EscapeRenderer.
func New(store *editor.Store, r Renderer, opts ...Option) *Preview {
	if r == nil {
		r = EscapeRenderer{}
	}
	p := &Preview{
		store:    store,
		renderer: r,
		clock:    clock.New(),
		delay:    DefaultDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.render()
	p.unsubscribe = store.Subscribe(p.onChange)
	return p
}

func (p *Preview) onChange(editor.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.timer == nil {
		p.timer = p.clock.AfterFunc(p.delay, p.fire)
		return
	}
	p.timer.Reset(p.delay)
}

func (p *Preview) fire() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.mu.Unlock()
	p.render()
}

func (p *Preview) render() {
	m, rev := p.store.SnapshotWithRevision()
	v := Project(m, rev, p.renderer)
	telemetry.PreviewRenders.Inc()

	p.mu.Lock()
	defer p.mu.Unlock()
	// a slow render must not overwrite a newer one
	if p.current == nil || v.Revision >= p.current.Revision {
		p.current = v
	}
}

// Current returns the latest view. It may lag the store by up to the delay.
func (p *Preview) Current() *View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Flush cancels a pending update and renders immediately.
func (p *Preview) Flush() *View {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
	p.render()
	return p.Current()
}

func (p *Preview) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
	p.unsubscribe()
}
