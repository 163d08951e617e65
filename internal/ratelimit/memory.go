package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int64
	reset time.Time
}

// MemoryStore keeps windows in process memory and drops expired ones on a
// timer. Call Stop to end the sweeper.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
	stop    chan struct{}
	done    chan struct{}
}

func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	s := &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.sweepLoop(sweepEvery)
	return s
}

func (s *MemoryStore) Hit(_ context.Context, key string, d time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(d)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.reset.Sub(now), nil
}

func (s *MemoryStore) sweepLoop(every time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, w := range s.windows {
		if !now.Before(w.reset) {
			delete(s.windows, k)
		}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Stop ends the sweeper and waits for it. Safe to call more than once.
func (s *MemoryStore) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}
