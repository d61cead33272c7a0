// Package connectivity tracks whether the network is reachable and
// notifies subscribers on changes.  It is passed explicitly to whatever
// needs it; there is no process-global flag.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Status is a shared connectivity signal.  Safe for concurrent use.
type Status struct {
	mu     sync.RWMutex
	online bool
	subs   map[int]chan bool
	nextID int
}

// New returns a Status with the given initial state.
func New(online bool) *Status {
	return &Status{online: online, subs: make(map[int]chan bool)}
}

// Online reports the current state.
func (s *Status) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// Set updates the state and, on a transition, notifies every subscriber.
// Notification is non-blocking: a subscriber that is not draining its
// channel misses intermediate transitions but always sees the latest via
// Online.
func (s *Status) Set(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	var targets []chan bool
	if changed {
		targets = make([]chan bool, 0, len(s.subs))
		for _, ch := range s.subs {
			targets = append(targets, ch)
		}
	}
	s.mu.Unlock()
	for _, ch := range targets {
		select {
		case ch <- online:
		default:
		}
	}
}

// Subscribe registers for transition notifications.  The returned cancel
// function unregisters and must be called exactly once; the channel is
// closed by cancel.
func (s *Status) Subscribe() (<-chan bool, func()) {
	ch := make(chan bool, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Probe polls probeURL at the given interval with HEAD requests and
// updates the state accordingly.  It returns when ctx is cancelled.
func (s *Status) Probe(ctx context.Context, client *http.Client, probeURL string, interval time.Duration) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, probeURL, nil)
		if err == nil {
			resp, err := client.Do(req)
			if err == nil {
				resp.Body.Close()
				s.Set(true)
			} else {
				s.Set(false)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
