package persist

import (
	"encoding/json"
	"sync"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
)

// Mirror keeps storage in step with live stores. Every committed change
// queues the latest serialised state for its key and a single background
// goroutine writes it. A key queued again before it is written keeps only the
// newer state. Write failures are logged and counted but never reach the
// editor.
type Mirror struct {
	adapter *Adapter

	mu       sync.Mutex
	idle     *sync.Cond
	pending  map[string][]byte
	writing  bool
	closed   bool
	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	unsubs   []func()
	stopOnce sync.Once
}

func (a *Adapter) NewMirror() *Mirror {
	m := &Mirror{
		adapter: a,
		pending: make(map[string][]byte),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	m.idle = sync.NewCond(&m.mu)
	go m.loop()
	return m
}

// Message mirrors the live message of s.
func (m *Mirror) Message(s *editor.Store) {
	m.watch(KeyMessage, s.Subscribe, s.MarshalJSON)
}

// CustomCommands mirrors an action collection.
func (m *Mirror) CustomCommands(s *editor.ActionStore) {
	m.watch(KeyCustomCommands, s.Subscribe, s.MarshalJSON)
}

func (m *Mirror) watch(key string, subscribe func(func(editor.Change)) func(), encode func() ([]byte, error)) {
	unsub := subscribe(func(editor.Change) {
		state, err := encode()
		if err != nil {
			logger.Error("persist_encode_failed", "key", key, "error", err)
			return
		}
		m.enqueue(key, state)
	})
	m.mu.Lock()
	m.unsubs = append(m.unsubs, unsub)
	m.mu.Unlock()
}

func (m *Mirror) enqueue(key string, state json.RawMessage) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.pending[key] = state
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Mirror) loop() {
	defer close(m.done)
	for {
		select {
		case <-m.wake:
			m.drain()
		case <-m.stop:
			m.drain()
			return
		}
	}
}

func (m *Mirror) drain() {
	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.writing = false
			m.idle.Broadcast()
			m.mu.Unlock()
			return
		}
		batch := m.pending
		m.pending = make(map[string][]byte)
		m.writing = true
		m.mu.Unlock()

		for key, state := range batch {
			m.write(key, state)
		}
	}
}

func (m *Mirror) write(key string, state []byte) {
	var err error
	if key == KeyMessage {
		err = m.adapter.save(key, state)
		if err == nil {
			err = m.adapter.dropLegacy()
		}
	} else {
		err = m.adapter.save(key, state)
	}
	if err != nil {
		logger.Error("persist_write_failed", "key", key, "error", err)
	}
}

// Flush blocks until everything queued so far has been written.
func (m *Mirror) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for (len(m.pending) > 0 || m.writing) && !m.closed {
		m.idle.Wait()
	}
}

// Close stops watching, writes what is still queued and stops the writer.
func (m *Mirror) Close() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		unsubs := m.unsubs
		m.unsubs = nil
		m.mu.Unlock()
		for _, u := range unsubs {
			u()
		}
		close(m.stop)
		<-m.done
		m.mu.Lock()
		m.closed = true
		m.idle.Broadcast()
		m.mu.Unlock()
	})
}
