// Package checkpoint makes long batch runs idempotent and
// crash-resilient. A manager owns one JSON state file per run; all other
// components exchange plain values with it and never see the file.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the manager's lifecycle state.
type State string

const (
	// StateFresh means no prior checkpoint was found or the load failed;
	// loading always degrades to Fresh rather than erroring.
	StateFresh State = "fresh"
	// StateLoaded means valid prior state was restored.
	StateLoaded State = "loaded"
	// StateCleared is terminal for a session, reachable only through
	// Clear after a fully successful run.
	StateCleared State = "cleared"
)

// fileLayout is the persisted checkpoint schema. Unknown fields in an
// existing file are ignored on load, keeping the schema
// forward-compatible.
type fileLayout struct {
	SessionID                   string   `json:"sessionId"`
	StartTime                   string   `json:"startTime"`
	LastUpdate                  string   `json:"lastUpdate"`
	ProcessedRepositories       []string `json:"processedRepositories"`
	SuggestedNewIndexes         []string `json:"suggestedNewIndexes"`
	SuggestedMultiColumnIndexes []string `json:"suggestedMultiColumnIndexes"`
	ModifiedFiles               []string `json:"modifiedFiles"`
}

// Manager is the checkpoint/resume manager. Its sets grow monotonically
// within a session until Clear. Safe for concurrent use.
type Manager struct {
	path   string
	logger *zap.Logger

	mu          sync.Mutex
	state       State
	loadDone    bool
	hadProgress bool

	sessionID string
	startedAt time.Time

	processed *orderedSet
	singles   *orderedSet
	multis    *orderedSet
	modified  *orderedSet
}

// NewManager creates a manager persisting to path. The session starts
// Fresh with a new session id; Load replaces it when prior state exists.
func NewManager(path string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		path:      path,
		logger:    logger.Named("checkpoint"),
		state:     StateFresh,
		sessionID: uuid.NewString(),
		startedAt: time.Now().UTC(),
		processed: newOrderedSet(),
		singles:   newOrderedSet(),
		multis:    newOrderedSet(),
		modified:  newOrderedSet(),
	}
}

// Load restores prior state from disk. It is idempotent: the first call
// performs the read and caches the outcome, later calls return the
// cached answer without touching disk. Returns whether any prior
// progress existed. A missing or corrupt file is "no checkpoint",
// never an error.
func (m *Manager) Load() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadDone {
		return m.hadProgress
	}
	m.loadDone = true

	data, err := os.ReadFile(m.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.logger.Warn("Checkpoint unreadable, starting fresh",
				zap.String("path", m.path), zap.Error(err))
		}
		return false
	}

	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		m.logger.Warn("Checkpoint corrupt, starting fresh",
			zap.String("path", m.path), zap.Error(err))
		return false
	}

	if layout.SessionID != "" {
		m.sessionID = layout.SessionID
	}
	if t, err := time.Parse(time.RFC3339, layout.StartTime); err == nil {
		m.startedAt = t
	}
	m.processed.addAll(layout.ProcessedRepositories)
	m.singles.addAll(layout.SuggestedNewIndexes)
	m.multis.addAll(layout.SuggestedMultiColumnIndexes)
	m.modified.addAll(layout.ModifiedFiles)

	m.state = StateLoaded
	m.hadProgress = m.processed.len() > 0

	m.logger.Info("Checkpoint loaded",
		zap.String("session_id", m.sessionID),
		zap.Int("processed_units", m.processed.len()),
		zap.Int("modified_files", m.modified.len()))
	return m.hadProgress
}

// IsProcessed reports whether a unit was completed in this or a prior,
// interrupted run.
func (m *Manager) IsProcessed(unitID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed.has(unitID)
}

// MarkProcessed records a completed unit.
func (m *Manager) MarkProcessed(unitID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed.add(unitID)
}

// AddSuggestions merges suggestion keys into the run-wide sets.
func (m *Manager) AddSuggestions(single, multi []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.singles.addAll(single)
	m.multis.addAll(multi)
}

// MarkModified records a unit whose source the rewriting collaborator
// changed.
func (m *Manager) MarkModified(file string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modified.add(file)
}

// Save persists the full current state. Called after every successfully
// completed unit, so the most an interruption can lose is the in-flight
// unit. Callers log failures and continue; a failed save only means the
// current unit is not yet durable.
func (m *Manager) Save() error {
	m.mu.Lock()
	layout := fileLayout{
		SessionID:                   m.sessionID,
		StartTime:                   m.startedAt.Format(time.RFC3339),
		LastUpdate:                  time.Now().UTC().Format(time.RFC3339),
		ProcessedRepositories:       m.processed.values(),
		SuggestedNewIndexes:         m.singles.values(),
		SuggestedMultiColumnIndexes: m.multis.values(),
		ModifiedFiles:               m.modified.values(),
	}
	m.mu.Unlock()

	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", m.path, err)
	}
	return nil
}

// Clear deletes the persisted file and resets in-memory state. Called
// only after the orchestrating caller finishes every unit without fatal
// error; the next use starts Fresh with a new session.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove checkpoint %s: %w", m.path, err)
	}

	m.state = StateCleared
	m.loadDone = false
	m.hadProgress = false
	m.sessionID = uuid.NewString()
	m.startedAt = time.Now().UTC()
	m.processed = newOrderedSet()
	m.singles = newOrderedSet()
	m.multis = newOrderedSet()
	m.modified = newOrderedSet()
	return nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID returns the current session identity.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Suggestions returns the accumulated suggestion keys in insertion
// order.
func (m *Manager) Suggestions() (single, multi []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.singles.values(), m.multis.values()
}

// orderedSet is a string set that remembers insertion order.
type orderedSet struct {
	seen  map[string]bool
	order []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.order = append(s.order, v)
}

func (s *orderedSet) addAll(values []string) {
	for _, v := range values {
		s.add(v)
	}
}

func (s *orderedSet) has(v string) bool { return s.seen[v] }
func (s *orderedSet) len() int          { return len(s.order) }

func (s *orderedSet) values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
