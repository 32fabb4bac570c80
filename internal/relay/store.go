// Package relay implements the covert-channel drop point: an in-memory chunk
// store with message lifecycle tracking, served over DNS TXT queries for
// retrieval and a small HTTP API for uploads.
package relay

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// State tracks where a message sits in its delivery lifecycle.
type State int

const (
	StateNew State = iota
	StateDelivered
	StateConsumed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateDelivered:
		return "delivered"
	case StateConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// Consumer records one client fetch.
type Consumer struct {
	ClientID  string    `json:"client_id"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Message is a chunked artifact parked at the relay.
type Message struct {
	ID        string            `json:"id"`
	Total     uint16            `json:"total"`
	Manifest  string            `json:"manifest"`
	Chunks    map[uint16]string `json:"chunks"` // sequence -> encoded fragment
	CreatedAt time.Time         `json:"created_at"`
	State     State             `json:"state"`
	Consumers []Consumer        `json:"consumers"`
}

// Stats summarizes the store.
type Stats struct {
	Messages  int `json:"messages"`
	New       int `json:"new"`
	Delivered int `json:"delivered"`
	Consumed  int `json:"consumed"`
	Chunks    int `json:"chunks"`
}

// Store keeps messages in memory with queue semantics: each client sees a
// message once via Pending, then acknowledges it once decoded.
type Store struct {
	mu       sync.RWMutex
	messages map[string]*Message
	seen     map[string]map[string]bool // clientID -> msgID set
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		messages: make(map[string]*Message),
		seen:     make(map[string]map[string]bool),
	}
}

// Publish parks a complete message. Re-publishing an existing ID is an error;
// the sender picks a fresh random ID per upload.
func (s *Store) Publish(id string, total uint16, manifest string, chunks map[uint16]string) error {
	if id == "" {
		return fmt.Errorf("empty message id")
	}
	if len(chunks) == 0 {
		return fmt.Errorf("message %s has no chunks", id)
	}
	if int(total) != len(chunks) {
		return fmt.Errorf("message %s: total %d but %d chunks supplied", id, total, len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.messages[id]; exists {
		return fmt.Errorf("message %s already exists", id)
	}

	stored := make(map[uint16]string, len(chunks))
	for seq, data := range chunks {
		stored[seq] = data
	}
	s.messages[id] = &Message{
		ID:        id,
		Total:     total,
		Manifest:  manifest,
		Chunks:    stored,
		CreatedAt: time.Now(),
		State:     StateNew,
	}
	return nil
}

// Chunk returns one encoded fragment.
func (s *Store) Chunk(msgID string, seq uint16) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, exists := s.messages[msgID]
	if !exists {
		return "", false
	}
	data, exists := msg.Chunks[seq]
	return data, exists
}

// Manifest returns the message manifest record.
func (s *Store) Manifest(msgID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, exists := s.messages[msgID]
	if !exists {
		return "", false
	}
	return msg.Manifest, true
}

// Pending returns IDs of messages this client has not yet seen and marks them
// delivered. At-least-once semantics: a crash after delivery but before ack
// leaves the message available to other clients.
func (s *Store) Pending(clientID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := s.seen[clientID]
	if seen == nil {
		seen = make(map[string]bool)
		s.seen[clientID] = seen
	}

	var ids []string
	for id, msg := range s.messages {
		if seen[id] || msg.State == StateConsumed {
			continue
		}
		ids = append(ids, id)
		seen[id] = true
		if msg.State == StateNew {
			msg.State = StateDelivered
		}
		msg.Consumers = append(msg.Consumers, Consumer{
			ClientID:  clientID,
			FetchedAt: time.Now(),
		})
	}
	return ids
}

// Ack marks a message consumed once a client has reassembled and decoded it.
func (s *Store) Ack(msgID, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, exists := s.messages[msgID]
	if !exists {
		return fmt.Errorf("message %s not found", msgID)
	}
	msg.State = StateConsumed
	return nil
}

// Get returns a message by ID.
func (s *Store) Get(msgID string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, exists := s.messages[msgID]
	if !exists {
		return nil, fmt.Errorf("message %s not found", msgID)
	}
	return msg, nil
}

// Sweep removes messages older than ttl and returns how many were dropped.
func (s *Store) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for id, msg := range s.messages {
		if msg.CreatedAt.Before(cutoff) {
			delete(s.messages, id)
			removed++
		}
	}
	return removed
}

// Stats returns a point-in-time summary.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	for _, msg := range s.messages {
		st.Messages++
		st.Chunks += len(msg.Chunks)
		switch msg.State {
		case StateNew:
			st.New++
		case StateDelivered:
			st.Delivered++
		case StateConsumed:
			st.Consumed++
		}
	}
	return st
}

// FileStore layers JSON-file persistence over Store so a relay restart does
// not drop parked messages.
type FileStore struct {
	*Store
	path   string
	saveMu sync.Mutex
}

// NewFileStore creates a persistent store, loading prior state when present.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{Store: NewStore(), path: path}
	if err := fs.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load relay state: %w", err)
	}
	return fs, nil
}

// Publish stores the message and persists the new state.
func (fs *FileStore) Publish(id string, total uint16, manifest string, chunks map[uint16]string) error {
	if err := fs.Store.Publish(id, total, manifest, chunks); err != nil {
		return err
	}
	return fs.Save()
}

// Ack marks the message consumed and persists the new state.
func (fs *FileStore) Ack(msgID, clientID string) error {
	if err := fs.Store.Ack(msgID, clientID); err != nil {
		return err
	}
	return fs.Save()
}

type persistedState struct {
	Messages map[string]*Message        `json:"messages"`
	Seen     map[string]map[string]bool `json:"seen"`
}

// Save writes the current state to disk via a temp-file rename so a crash
// mid-write never truncates the previous snapshot.
func (fs *FileStore) Save() error {
	fs.saveMu.Lock()
	defer fs.saveMu.Unlock()

	fs.mu.RLock()
	data, err := json.MarshalIndent(persistedState{
		Messages: fs.messages,
		Seen:     fs.seen,
	}, "", "  ")
	fs.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal relay state: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write relay state: %w", err)
	}
	return os.Rename(tmp, fs.path)
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return err
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("unmarshal relay state: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if state.Messages != nil {
		fs.messages = state.Messages
	}
	if state.Seen != nil {
		fs.seen = state.Seen
	}
	return nil
}
