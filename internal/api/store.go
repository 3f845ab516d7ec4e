package api

import (
	"sync"
)

// DefaultStoreCapacity bounds how many scans are kept before the oldest is
// evicted.
const DefaultStoreCapacity = 256

type scanRecord struct {
	Response ScanResponse
	Appended []byte
}

// ScanStore keeps recent scan results in memory.
type ScanStore struct {
	mu       sync.Mutex
	capacity int
	order    []string
	scans    map[string]*scanRecord
}

func NewScanStore(capacity int) *ScanStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &ScanStore{
		capacity: capacity,
		scans:    make(map[string]*scanRecord),
	}
}

// Put stores resp along with a private copy of the appended bytes.
func (s *ScanStore) Put(resp ScanResponse, appended []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scans[resp.ID]; !ok {
		s.order = append(s.order, resp.ID)
	}
	s.scans[resp.ID] = &scanRecord{
		Response: resp,
		Appended: append([]byte(nil), appended...),
	}
	for len(s.order) > s.capacity {
		delete(s.scans, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *ScanStore) Get(id string) (scanRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.scans[id]
	if !ok {
		return scanRecord{}, false
	}
	return *rec, true
}

// List returns up to limit scans, newest first, starting after the given id.
func (s *ScanStore) List(after string, limit int) ([]ScanResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.order) - 1
	if after != "" {
		start = -1
		for i, id := range s.order {
			if id == after {
				start = i - 1
				break
			}
		}
	}

	var out []ScanResponse
	i := start
	for ; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.scans[s.order[i]].Response)
	}
	return out, i >= 0
}

func (s *ScanStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scans[id]; !ok {
		return false
	}
	delete(s.scans, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *ScanStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scans)
}
