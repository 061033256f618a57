package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"voice-chat/internal/domain"
)

// OutputFileName is the fixed name the synthesized reply is written to and
// served back from.
const OutputFileName = "output.wav"

type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, sess *domain.Session) error
	Delete(ctx context.Context, id string) error
}

// Sessions owns the session lifecycle: creation, expiry, the per-session
// output directory and the lock that keeps one session's runs sequential.
type Sessions struct {
	store     SessionStore
	ttl       time.Duration
	outputDir string
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessions(store SessionStore, ttl time.Duration, outputDir string, logger *slog.Logger) *Sessions {
	return &Sessions{
		store:     store,
		ttl:       ttl,
		outputDir: outputDir,
		logger:    logger,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *Sessions) Start(ctx context.Context) (*domain.Session, error) {
	now := s.now()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl)
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.logger.Debug("session started", "session", sess.ID)
	return sess, nil
}

// Load returns the live session for id. Unknown, malformed and expired ids
// all report domain.ErrSessionNotFound; expired sessions are ended on the way.
func (s *Sessions) Load(ctx context.Context, id string) (*domain.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrSessionNotFound
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sess.Expired(s.now()) {
		if err := s.End(ctx, id); err != nil {
			s.logger.Warn("ending expired session", "session", id, "error", err)
		}
		return nil, domain.ErrSessionNotFound
	}

	return sess, nil
}

func (s *Sessions) Save(ctx context.Context, sess *domain.Session) error {
	if err := s.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Login runs gate against a fresh copy of the session while holding its lock
// and saves the outcome, so concurrent attempts cannot undo an authorization.
func (s *Sessions) Login(ctx context.Context, id string, gate *Gate, credential string) (*domain.Session, bool, error) {
	unlock := s.Lock(id)
	defer unlock()

	sess, err := s.Load(ctx, id)
	if err != nil {
		return nil, false, err
	}

	ok, checkErr := gate.Check(sess, credential)
	if err := s.Save(ctx, sess); err != nil {
		return nil, false, err
	}
	return sess, ok, checkErr
}

// End forgets the session and deletes everything written on its behalf.
func (s *Sessions) End(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrSessionNotFound
	}

	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}

	if err := os.RemoveAll(s.sessionDir(id)); err != nil {
		return fmt.Errorf("removing session output: %w", err)
	}

	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()

	s.logger.Debug("session ended", "session", id)
	return nil
}

func (s *Sessions) OutputPath(id string) string {
	return filepath.Join(s.sessionDir(id), OutputFileName)
}

// Lock serializes pipeline runs for one session and returns the unlock func.
func (s *Sessions) Lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Sweep removes output directories that no longer belong to a live session.
func (s *Sessions) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading output dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		id := entry.Name()
		_, err := s.Load(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Warn("checking session during sweep", "session", id, "error", err)
			continue
		}

		if err := os.RemoveAll(filepath.Join(s.outputDir, id)); err != nil {
			s.logger.Warn("removing stale output", "session", id, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}

func (s *Sessions) StartPeriodicSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.Sweep(ctx)
				if err != nil {
					s.logger.Error("session sweep failed", "error", err)
					continue
				}
				if n > 0 {
					s.logger.Info("removed stale session output", "count", n)
				}
			}
		}
	}()
}

func (s *Sessions) sessionDir(id string) string {
	return filepath.Join(s.outputDir, id)
}
