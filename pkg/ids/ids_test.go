package ids

import (
	"sync"
	"testing"
)

func TestGeneratorMonotonic(t *testing.T) {
	g := NewFrom(10)
	prev := g.Next()
	if prev != 11 {
		t.Fatalf("first id = %d, want 11", prev)
	}
	for i := 0; i < 100; i++ {
		n := g.Next()
		if n <= prev {
			t.Fatalf("id %d not greater than %d", n, prev)
		}
		prev = n
	}
}

func TestGeneratorObserve(t *testing.T) {
	g := NewFrom(0)
	g.Observe(500)
	if got := g.Next(); got != 501 {
		t.Fatalf("Next after Observe(500) = %d, want 501", got)
	}
	g.Observe(3)
	if got := g.Next(); got != 502 {
		t.Fatalf("Observe of a smaller id must not rewind, got %d", got)
	}
	g.ObserveKey("9000")
	g.ObserveKey("not-a-number")
	g.ObserveKey("9223372036854775807")
	g.Observe(MaxObserved + 1)
	if got := g.NextKey(); got != "9001" {
		t.Fatalf("NextKey = %q, want 9001", got)
	}
}

func TestGeneratorConcurrentUnique(t *testing.T) {
	g := New()
	const workers, per = 8, 500
	out := make(chan int, workers*per)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				out <- g.Next()
			}
		}()
	}
	wg.Wait()
	close(out)
	seen := make(map[int]struct{}, workers*per)
	for id := range out {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
}
