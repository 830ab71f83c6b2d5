package editor

import "sync"

// Origin tells listeners where a change came from.
type Origin int

const (
	// OriginEdit is any regular mutation.
	OriginEdit Origin = iota
	// OriginHistory is an undo or redo replacing the document.
	OriginHistory
)

func (o Origin) String() string {
	switch o {
	case OriginEdit:
		return "edit"
	case OriginHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Change is delivered to listeners after a mutation committed.
type Change struct {
	Op       string
	Origin   Origin
	Revision uint64
}

type listener struct {
	id int
	fn func(Change)
}

// broadcaster fans changes out to listeners in registration order.
type broadcaster struct {
	mu        sync.Mutex
	nextID    int
	listeners []listener
}

func (b *broadcaster) subscribe(fn func(Change)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listener{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, l := range b.listeners {
				if l.id == id {
					b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (b *broadcaster) notify(c Change) {
	b.mu.Lock()
	ls := make([]listener, len(b.listeners))
	copy(ls, b.listeners)
	b.mu.Unlock()
	for _, l := range ls {
		l.fn(c)
	}
}
