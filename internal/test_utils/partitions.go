package test_utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// WritePartitions writes every value of files, JSON encoded, below dir.
// Keys are slash separated paths such as "data/twenty-five/january/study.json".
// A []byte value is written as is.
func WritePartitions(t *testing.T, dir string, files map[string]any) {
	t.Helper()
	for name, v := range files {
		target := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		data, ok := v.([]byte)
		if !ok {
			var err error
			data, err = json.Marshal(v)
			if err != nil {
				t.Fatalf("Failed to encode %s: %v", name, err)
			}
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

// PartitionServer serves a directory of partitions over HTTP and counts requests.
type PartitionServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests map[string]int
}

// NewPartitionServer writes files to a temporary directory and serves it.
// The server is closed when the test ends.
func NewPartitionServer(t *testing.T, files map[string]any) *PartitionServer {
	t.Helper()
	dir := t.TempDir()
	WritePartitions(t, dir, files)

	ps := &PartitionServer{requests: make(map[string]int)}
	fileServer := http.FileServer(http.Dir(dir))
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.requests[strings.TrimPrefix(r.URL.Path, "/")]++
		ps.mu.Unlock()
		fileServer.ServeHTTP(w, r)
	}))
	t.Cleanup(ps.Close)
	return ps
}

// Requests returns how often path (without leading slash) was requested.
func (ps *PartitionServer) Requests(path string) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.requests[path]
}
