// Package conversation keeps per-user chat histories in memory.
//
// A history starts with one system turn and then alternates user and
// assistant turns. Histories live for the process lifetime unless capped
// or evicted after idling.
package conversation

import (
	"fmt"
	"slices"
	"sync"
	"time"

	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
	"github.com/garyellow/codered-bot-go/internal/metrics"
)

// Role identifies who produced a turn.
type Role string

// Turn roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a history. Turns are values and are always copied
// out of the store.
type Turn struct {
	Role    Role
	Content string
}

// Config configures a Store.
type Config struct {
	// SystemPrompt seeds every new history.
	SystemPrompt string

	// MaxExchanges caps the user/assistant pairs kept after the system
	// turn. 0 keeps everything.
	MaxExchanges int

	// IdleTTL evicts histories untouched for this long. 0 disables eviction.
	IdleTTL time.Duration

	// CleanupPeriod is how often idle histories are looked for.
	CleanupPeriod time.Duration

	// Optional metrics reporter
	Metrics *metrics.Metrics
}

// Store tracks one history per user. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	config  Config
	now     func() time.Time
	stopCh  chan struct{}
	stopped sync.Once
}

// entry holds per-user state. turnMu serializes whole turns for the user;
// mu guards history and lastUsed.
type entry struct {
	turnMu   sync.Mutex
	refs     int // holders and waiters of turnMu, guarded by Store.mu
	mu       sync.Mutex
	history  []Turn // nil until GetOrCreate
	lastUsed time.Time
}

// NewStore creates a store. When IdleTTL is set a cleanup goroutine runs
// until Stop is called.
func NewStore(cfg Config) *Store {
	if cfg.MaxExchanges < 0 {
		cfg.MaxExchanges = 0
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}

	s := &Store{
		entries: make(map[string]*entry),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	if cfg.IdleTTL > 0 {
		go s.cleanupLoop()
	}
	return s
}

// getOrCreateEntry returns the entry for a user, creating it if needed.
func (s *Store) getOrCreateEntry(userID string) *entry {
	s.mu.RLock()
	e, exists := s.entries[userID]
	s.mu.RUnlock()

	if exists {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if e, exists = s.entries[userID]; exists {
		return e
	}
	e = &entry{lastUsed: s.now()}
	s.entries[userID] = e
	return e
}

func (s *Store) lookup(userID string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[userID]
	return e, ok
}

// Lock serializes turns for userID and returns the matching unlock func.
// Distinct users never contend. The entry cannot be evicted while locked.
func (s *Store) Lock(userID string) (unlock func()) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{lastUsed: s.now()}
		s.entries[userID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.turnMu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.turnMu.Unlock()
			s.mu.Lock()
			e.refs--
			s.mu.Unlock()
		})
	}
}

// GetOrCreate returns a copy of the user's history, seeding it with the
// system turn on first contact.
func (s *Store) GetOrCreate(userID string) []Turn {
	e := s.getOrCreateEntry(userID)

	e.mu.Lock()
	created := e.history == nil
	if created {
		e.history = []Turn{{Role: RoleSystem, Content: s.config.SystemPrompt}}
	}
	e.lastUsed = s.now()
	out := slices.Clone(e.history)
	e.mu.Unlock()

	if created {
		s.reportActive()
	}
	return out
}

// History returns a copy of the user's history without creating one.
func (s *Store) History(userID string) ([]Turn, bool) {
	e, ok := s.lookup(userID)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.history == nil {
		return nil, false
	}
	return slices.Clone(e.history), true
}

// Append adds one user or assistant turn to an existing history. Turns must
// alternate user, assistant after the system turn; anything else returns
// ErrOutOfOrder and leaves the history untouched.
func (s *Store) Append(userID string, role Role, content string) error {
	if role != RoleUser && role != RoleAssistant {
		return apperrors.ErrInvalidRole
	}
	return s.appendTurns(userID, Turn{Role: role, Content: content})
}

// Commit appends a user turn and its assistant reply together, then applies
// the history cap. Used once a reply has been obtained so a failed turn
// leaves no trace.
func (s *Store) Commit(userID, userContent, assistantContent string) error {
	return s.appendTurns(userID,
		Turn{Role: RoleUser, Content: userContent},
		Turn{Role: RoleAssistant, Content: assistantContent},
	)
}

func (s *Store) appendTurns(userID string, turns ...Turn) error {
	e, ok := s.lookup(userID)
	if !ok {
		return apperrors.ErrUnknownUser
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.history == nil {
		return apperrors.ErrUnknownUser
	}
	last := e.history[len(e.history)-1].Role
	for _, turn := range turns {
		if !follows(last, turn.Role) {
			return fmt.Errorf("%w: %s after %s", apperrors.ErrOutOfOrder, turn.Role, last)
		}
		last = turn.Role
	}
	e.history = append(e.history, turns...)
	e.history = capHistory(e.history, s.config.MaxExchanges)
	e.lastUsed = s.now()
	return nil
}

// follows reports whether next may come right after prev: a user turn after
// the system or an assistant turn, an assistant turn only after a user turn.
func follows(prev, next Role) bool {
	switch next {
	case RoleUser:
		return prev == RoleSystem || prev == RoleAssistant
	case RoleAssistant:
		return prev == RoleUser
	default:
		return false
	}
}

// capHistory keeps the system turn and the most recent maxExchanges pairs.
// An odd number of turns is dropped from the front so the kept tail still
// starts with a user turn.
func capHistory(history []Turn, maxExchanges int) []Turn {
	if maxExchanges <= 0 || len(history) == 0 {
		return history
	}
	body := len(history) - 1
	drop := body - 2*maxExchanges
	if drop <= 0 {
		return history
	}
	if drop%2 == 1 {
		drop++
	}
	kept := make([]Turn, 0, len(history)-drop)
	kept = append(kept, history[0])
	kept = append(kept, history[1+drop:]...)
	return kept
}

// Reset drops the user's history. The next GetOrCreate starts over.
func (s *Store) Reset(userID string) {
	e, ok := s.lookup(userID)
	if !ok {
		return
	}
	e.mu.Lock()
	had := e.history != nil
	e.history = nil
	e.mu.Unlock()

	if had {
		s.reportActive()
	}
}

// Len returns the number of users with a history.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		e.mu.Lock()
		if e.history != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// evictIdle removes entries idle since before cutoff that nobody holds.
func (s *Store) evictIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, e := range s.entries {
		if e.refs > 0 {
			continue
		}
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		hadHistory := e.history != nil
		e.mu.Unlock()
		if idle {
			delete(s.entries, userID)
			if hadHistory {
				evicted++
			}
		}
	}
	return evicted
}

// cleanupLoop periodically evicts idle histories.
func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			n := s.evictIdle(s.now().Add(-s.config.IdleTTL))
			s.config.Metrics.RecordEvictions(n)
			s.reportActive()
		}
	}
}

func (s *Store) reportActive() {
	if s.config.Metrics == nil {
		return
	}
	s.config.Metrics.SetActiveConversations(s.Len())
}

// Stop stops the cleanup goroutine.
// Safe to call multiple times.
func (s *Store) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
}
