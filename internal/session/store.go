package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/kissandost/internal/conversation"
	"github.com/foxseedlab/kissandost/internal/kvstore"
	"github.com/google/uuid"
)

// Mutator receives a private copy of a session's messages and returns the
// new list.
type Mutator func(msgs []conversation.Message) []conversation.Message

// Store owns the session collection, most recent first. Every mutation is
// applied in memory and then written through as a whole; a persistence error
// is returned but the in-memory change stays applied.
type Store struct {
	kv    kvstore.Store
	now   func() time.Time
	newID func() string

	mu            sync.Mutex
	sessions      []conversation.Session
	lastPersisted string
}

func NewStore(kv kvstore.Store) *Store {
	return &Store{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Load replaces the in-memory collection with the persisted one. An absent key
// is an empty collection.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, kvstore.KeySessions)
	if err != nil {
		return fmt.Errorf("failed to read sessions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
	s.lastPersisted = ""
	if !ok {
		return nil
	}
	var loaded []conversation.Session
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		return fmt.Errorf("failed to decode sessions: %w", err)
	}
	s.sessions = loaded
	s.lastPersisted = raw
	slog.Info("sessions hydrated", "count", len(loaded))
	return nil
}

// Create prepends a new session holding firstMessages and returns its id.
func (s *Store) Create(ctx context.Context, firstMessages []conversation.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := conversation.Session{
		ID:          s.newID(),
		Title:       conversation.TitleFromMessages(firstMessages),
		Messages:    conversation.CloneMessages(firstMessages),
		LastUpdated: s.now(),
	}
	s.sessions = append([]conversation.Session{sess}, s.sessions...)
	slog.Debug("session created", "session_id", sess.ID, "title", sess.Title)
	return sess.ID, s.persistLocked(ctx)
}

// Update applies mutate to the messages of session id. found is false, and
// nothing is written, when the session does not exist.
func (s *Store) Update(ctx context.Context, id string, mutate Mutator) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return false, nil
	}
	s.sessions[idx].Messages = mutate(conversation.CloneMessages(s.sessions[idx].Messages))
	s.sessions[idx].LastUpdated = s.now()
	return true, s.persistLocked(ctx)
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return false, nil
	}
	s.sessions = append(s.sessions[:idx:idx], s.sessions[idx+1:]...)
	slog.Debug("session deleted", "session_id", id)
	return true, s.persistLocked(ctx)
}

// Sessions returns a deep copy of the collection, most recent first.
func (s *Store) Sessions() []conversation.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]conversation.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

func (s *Store) Get(id string) (conversation.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return conversation.Session{}, false
	}
	return s.sessions[idx].Clone(), true
}

func (s *Store) indexLocked(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the whole collection unless it is byte-identical to
// the last successful write. The caller holds s.mu, so writes land in the
// order mutations were applied.
func (s *Store) persistLocked(ctx context.Context) error {
	sessions := s.sessions
	if sessions == nil {
		sessions = []conversation.Session{}
	}
	b, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	raw := string(b)
	if raw == s.lastPersisted {
		return nil
	}
	if err := s.kv.Set(ctx, kvstore.KeySessions, raw); err != nil {
		return fmt.Errorf("failed to persist sessions: %w", err)
	}
	s.lastPersisted = raw
	return nil
}
