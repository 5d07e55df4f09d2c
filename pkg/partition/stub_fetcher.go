package partition

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// FetcherStub serves in-memory JSON documents and counts calls per path.
type FetcherStub struct {
	mu        sync.Mutex
	resources map[string][]byte
	errs      map[string]error
	calls     map[string]int
	gate      chan struct{}
}

func NewFetcherStub() *FetcherStub {
	return &FetcherStub{
		resources: make(map[string][]byte),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

// Set stores v, marshalled to JSON, under path.
func (s *FetcherStub) Set(path string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	s.SetRaw(path, data)
}

func (s *FetcherStub) SetRaw(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[path] = data
}

// SetError makes every fetch of path fail with err.
func (s *FetcherStub) SetError(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[path] = err
}

// Block makes fetches wait until Release is called or their context ends.
func (s *FetcherStub) Block() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
}

func (s *FetcherStub) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

func (s *FetcherStub) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *FetcherStub) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, c := range s.calls {
		total += c
	}
	return total
}

func (s *FetcherStub) Fetch(ctx context.Context, path string, v any) error {
	s.mu.Lock()
	s.calls[path]++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	data, ok := s.resources[path]
	err := s.errs[path]
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return json.Unmarshal(data, v)
}
