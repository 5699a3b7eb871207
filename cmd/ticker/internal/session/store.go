package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/repository"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

var ErrNotFound = errors.New("session not found")

// Key derives the session key from the resolved principal. The separator
// keeps ("ab","c") and ("a","bc") from colliding.
func Key(userID, instanceID string) string {
	return userID + ":" + instanceID
}

// Defaults seed every lazily created session.
type Defaults struct {
	Controls    models.Controls
	Instruments []models.Instrument
}

// Store maps session keys to isolated sessions. Sessions live for the
// process lifetime; the optional archiver's TTL is the only eviction
// (documented extension point, see DESIGN.md).
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	defaults Defaults
	archiver repository.SessionArchiver // nil when archival is disabled
	onCreate func(*Session)             // scheduler attachment hook
	logger   *zap.Logger
}

func NewStore(defaults Defaults, archiver repository.SessionArchiver, onCreate func(*Session), logger *zap.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		defaults: defaults,
		archiver: archiver,
		onCreate: onCreate,
		logger:   logger,
	}
}

// Get returns the session for the principal or ErrNotFound. It never
// creates one.
func (st *Store) Get(userID, instanceID string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[Key(userID, instanceID)]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// GetOrCreate returns the existing session for the principal or atomically
// creates and seeds one. Concurrent calls for the same key observe exactly
// one session.
func (st *Store) GetOrCreate(ctx context.Context, userID, instanceID string, now int64) *Session {
	key := Key(userID, instanceID)

	st.mu.RLock()
	s, ok := st.sessions[key]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	if s, ok = st.sessions[key]; ok {
		st.mu.Unlock()
		return s
	}

	s = st.build(ctx, key, now)
	st.sessions[key] = s
	st.mu.Unlock()

	// Hook runs outside the store lock so it may call back into the store.
	if st.onCreate != nil {
		st.onCreate(s)
	}
	return s
}

func (st *Store) build(ctx context.Context, key string, now int64) *Session {
	if st.archiver != nil {
		snap, err := st.archiver.Load(ctx, key)
		switch {
		case err == nil:
			st.logger.Info("Session restored from archive", zap.String("session", key))
			return restoreSession(snap)
		case !errors.Is(err, repository.ErrNoSnapshot):
			st.logger.Warn("Archive load failed, seeding fresh session",
				zap.String("session", key), zap.Error(err))
		}
	}

	st.logger.Info("Session created", zap.String("session", key))
	return newSession(key, st.defaults.Controls, st.defaults.Instruments, now)
}

// Archive mirrors the session's current state into the archiver, if one is
// configured. Failures are logged, never surfaced: archival is best-effort
// and the in-memory session stays authoritative.
func (st *Store) Archive(ctx context.Context, s *Session) {
	if st.archiver == nil {
		return
	}
	instruments, controls := s.Snapshot()
	snap := models.SessionSnapshot{Key: s.Key(), Controls: controls, Instruments: instruments}
	if err := st.archiver.Save(ctx, snap); err != nil {
		st.logger.Warn("Session archive failed", zap.String("session", s.Key()), zap.Error(err))
	}
}
