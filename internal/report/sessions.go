package report

import "sync"

// Sessions keeps the most recent reports in memory, oldest evicted first.
type Sessions struct {
	mu    sync.Mutex
	max   int
	order []string
	byID  map[string]*Report
}

func NewSessions(max int) *Sessions {
	if max <= 0 {
		max = 32
	}
	return &Sessions{max: max, byID: make(map[string]*Report)}
}

func (s *Sessions) Put(r *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.byID[r.ID] = r
	for len(s.order) > s.max {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Sessions) Get(id string) (*Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	return r, ok
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
