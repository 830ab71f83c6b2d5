package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
)

var TracesDropped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "embedgen_traces_dropped_total",
		Help: "Operation traces dropped because the writer queue was full.",
	},
)

func init() {
	prometheus.MustRegister(TracesDropped)
}

type Phase struct {
	Name string  `json:"name"`
	MS   float64 `json:"ms"`
}

// Span times one editor operation. A nil *Span is valid and records nothing.
type Span struct {
	Op      string    `json:"op"`
	Start   time.Time `json:"start"`
	Phases  []Phase   `json:"phases,omitempty"`
	TotalMS float64   `json:"total_ms"`
	Err     string    `json:"error,omitempty"`

	last   time.Time
	tracer *Tracer
}

// TracerConfig controls where spans go and how often they hit disk.
type TracerConfig struct {
	Dir           string
	QueueSize     int
	FlushInterval time.Duration
	MaxFileBytes  int64
	Clock         clock.Clock
}

// Tracer appends finished spans to <dir>/<op>.jsonl from a single
// background goroutine.
type Tracer struct {
	cfg   TracerConfig
	clock clock.Clock

	mu    sync.Mutex
	files map[string]*os.File
	bufs  map[string]*bufio.Writer

	queue chan *Span
	stop  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

func NewTracer(cfg TracerConfig) (*Tracer, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 16 << 20
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	t := &Tracer{
		cfg:   cfg,
		clock: cfg.Clock,
		files: make(map[string]*os.File),
		bufs:  make(map[string]*bufio.Writer),
		queue: make(chan *Span, cfg.QueueSize),
		stop:  make(chan struct{}),
	}
	t.wg.Add(1)
	go t.loop()
	return t, nil
}

// Start opens a span for op. Calling Start on a nil tracer returns nil.
func (t *Tracer) Start(op string) *Span {
	if t == nil {
		return nil
	}
	now := t.clock.Now()
	return &Span{Op: op, Start: now, last: now, tracer: t}
}

// Mark closes the current phase under name.
func (s *Span) Mark(name string) {
	if s == nil || s.tracer == nil {
		return
	}
	now := s.tracer.clock.Now()
	s.Phases = append(s.Phases, Phase{Name: name, MS: ms(now.Sub(s.last))})
	s.last = now
}

// End records err, if any, and hands the span to the writer. Further calls
// do nothing.
func (s *Span) End(err error) {
	if s == nil || s.tracer == nil {
		return
	}
	t := s.tracer
	s.tracer = nil
	s.TotalMS = ms(t.clock.Since(s.Start))
	if err != nil {
		s.Err = err.Error()
	}
	select {
	case t.queue <- s:
	default:
		TracesDropped.Inc()
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (t *Tracer) loop() {
	defer t.wg.Done()
	ticker := t.clock.Ticker(t.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case s := <-t.queue:
			t.write(s)
		case <-ticker.C:
			t.flush()
		case <-t.stop:
			for {
				select {
				case s := <-t.queue:
					t.write(s)
				default:
					t.flush()
					t.mu.Lock()
					for _, f := range t.files {
						f.Close()
					}
					t.mu.Unlock()
					return
				}
			}
		}
	}
}

func (t *Tracer) write(s *Span) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	b, err := t.buffer(s.Op)
	if err != nil {
		return
	}
	b.Write(data)
	b.WriteByte('\n')
}

func (t *Tracer) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for op, b := range t.bufs {
		b.Flush()
		f := t.files[op]
		fi, err := f.Stat()
		if err != nil || fi.Size() <= t.cfg.MaxFileBytes {
			continue
		}
		// start over once a file grows past the cap
		f.Close()
		delete(t.files, op)
		delete(t.bufs, op)
		os.Remove(f.Name())
	}
}

func (t *Tracer) buffer(op string) (*bufio.Writer, error) {
	if b, ok := t.bufs[op]; ok {
		return b, nil
	}
	f, err := os.OpenFile(filepath.Join(t.cfg.Dir, op+".jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	b := bufio.NewWriter(f)
	t.files[op] = f
	t.bufs[op] = b
	return b, nil
}

// Close drains queued spans and closes every file.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		close(t.stop)
		t.wg.Wait()
	})
}
