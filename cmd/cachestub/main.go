// Command cachestub serves an in-memory imitation of the cachedContents API
// for integration tests and local development of goprefixcache.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
)

type createRequest struct {
	Model       string `json:"model"`
	TTL         string `json:"ttl"`
	DisplayName string `json:"displayName"`
}

type stub struct {
	mu      sync.Mutex
	nextID  int
	entries map[string]createRequest
}

func (s *stub) create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		http.Error(w, "model required", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.nextID++
	name := fmt.Sprintf("cachedContents/stub-%d", s.nextID)
	s.entries[name] = req
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"name":        name,
		"model":       req.Model,
		"displayName": req.DisplayName,
		"ttl":         req.TTL,
	})
}

func (s *stub) delete(w http.ResponseWriter, r *http.Request, name string) {
	s.mu.Lock()
	_, ok := s.entries[name]
	delete(s.entries, name)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{}"))
}

func (s *stub) list(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"cachedContents": names})
}

func main() {
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8082"
	}

	s := &stub{entries: make(map[string]createRequest)}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/cachedContents", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.create(w, r)
		case http.MethodGet:
			s.list(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/v1beta/cachedContents/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/v1beta/")
		s.delete(w, r, name)
	})

	log.Printf("cachestub listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
