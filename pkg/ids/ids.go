package ids

import (
	"strconv"
	"sync/atomic"
)

// DefaultBase is where a fresh generator starts counting. Ids persisted by
// earlier sessions are expected to stay well below it; anything above is
// handled by Observe.
const DefaultBase = 1_000_000

// Generator hands out process-unique numeric ids. Every id-bearing entity in
// a message (embeds, fields, components, options, actions, attachments) gets
// its id from here, and action set keys are stringified ids.
type Generator struct {
	last atomic.Int64
}

// New returns a generator starting at DefaultBase.
func New() *Generator {
	return NewFrom(DefaultBase)
}

// NewFrom returns a generator whose first id is base+1.
func NewFrom(base int) *Generator {
	g := &Generator{}
	g.last.Store(int64(base))
	return g
}

// Next returns the next id.
func (g *Generator) Next() int {
	return int(g.last.Add(1))
}

// NextKey returns the next id formatted as an action set key.
func (g *Generator) NextKey() string {
	return strconv.Itoa(g.Next())
}

// MaxObserved is the largest id Observe accepts. Larger ids come from
// foreign documents and would drive the counter toward overflow.
const MaxObserved = 1 << 53

// Observe makes sure later ids are greater than id. Ids above MaxObserved
// are ignored.
func (g *Generator) Observe(id int) {
	if id > MaxObserved {
		return
	}
	for {
		cur := g.last.Load()
		if int64(id) <= cur {
			return
		}
		if g.last.CompareAndSwap(cur, int64(id)) {
			return
		}
	}
}

// ObserveKey is Observe for numeric action set keys; other keys are ignored.
func (g *Generator) ObserveKey(key string) {
	if n, err := strconv.Atoi(key); err == nil {
		g.Observe(n)
	}
}

// Last returns the most recently issued (or observed) id.
func (g *Generator) Last() int {
	return int(g.last.Load())
}
