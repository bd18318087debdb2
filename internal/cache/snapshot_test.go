package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSnapshotFreshness(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewSnapshot[map[string]float64](5*time.Minute, clock.Now)

	if _, ok := s.Get(); ok {
		t.Fatalf("empty cache must miss")
	}

	s.Set(map[string]float64{"USD": 0.0067})
	clock.Advance(4*time.Minute + 59*time.Second)
	e, ok := s.Get()
	if !ok || e.Data["USD"] != 0.0067 {
		t.Fatalf("expected fresh hit, got %+v ok=%v", e, ok)
	}

	clock.Advance(time.Second)
	if _, ok := s.Get(); ok {
		t.Fatalf("entry at exactly ttl must be stale")
	}
	if _, ok := s.Peek(); !ok {
		t.Fatalf("stale entry must still be visible to Peek")
	}
}

func TestSnapshotReplaceIsWhole(t *testing.T) {
	s := NewSnapshot[map[string]float64](time.Minute, nil)
	old := map[string]float64{"USD": 1, "EUR": 2}
	s.Set(old)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Set(map[string]float64{"USD": 3, "EUR": 4})
		}()
		go func() {
			defer wg.Done()
			e, _ := s.Peek()
			usd, eur := e.Data["USD"], e.Data["EUR"]
			if !(usd == 1 && eur == 2) && !(usd == 3 && eur == 4) {
				t.Errorf("observed mixed table: USD=%v EUR=%v", usd, eur)
			}
		}()
	}
	wg.Wait()
}
