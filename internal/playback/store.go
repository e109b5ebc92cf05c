package playback

import "sync"

// Store maps guild IDs to their live queue. There is at most one queue per
// guild; entries disappear when their session ends.
type Store struct {
	mu     sync.Mutex
	queues map[string]*Queue
}

func NewStore() *Store {
	return &Store{queues: make(map[string]*Queue)}
}

func (s *Store) Get(guildID string) (*Queue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[guildID]
	return q, ok
}

func (s *Store) Set(guildID string, q *Queue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[guildID] = q
}

func (s *Store) Delete(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queues, guildID)
}

// GetOrCreate returns the guild's queue, creating it with newQueue if there is
// none. created is true only for the caller whose queue was stored.
func (s *Store) GetOrCreate(guildID string, newQueue func() *Queue) (q *Queue, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queues[guildID]; ok {
		return q, false
	}
	q = newQueue()
	s.queues[guildID] = q
	return q, true
}

// CompareAndDelete removes the entry only if it is still q.
func (s *Store) CompareAndDelete(guildID string, q *Queue) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queues[guildID] != q {
		return false
	}
	delete(s.queues, guildID)
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}

func (s *Store) All() []*Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Queue, 0, len(s.queues))
	for _, q := range s.queues {
		out = append(out, q)
	}
	return out
}
