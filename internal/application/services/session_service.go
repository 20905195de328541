package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	config "github.com/oeeez/artistly-platform/configs"
	"github.com/oeeez/artistly-platform/internal/core/domain/session"
	"github.com/oeeez/artistly-platform/internal/core/ports"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionRegistry implements ports.SessionStore over a KeyValueStore.
// Records live under session:<id>; each user has a set of active session
// ids under session:user:<userId>. The set is best-effort: record expiry
// leaves stale ids behind, and reads skip them.
type SessionRegistry struct {
	store   ports.KeyValueStore
	cfg     *config.SessionConfig
	enabled bool
	logger  *logrus.Logger

	// touch performs the background LastActivity refresh; replaced in
	// tests to run synchronously.
	touch func(fn func())
}

func NewSessionRegistry(store ports.KeyValueStore, cfg *config.SessionConfig, enabled bool, logger *logrus.Logger) *SessionRegistry {
	return &SessionRegistry{
		store:   store,
		cfg:     cfg,
		enabled: enabled,
		logger:  logger,
		touch:   func(fn func()) { go fn() },
	}
}

func (r *SessionRegistry) sessionKey(id string) string {
	return r.cfg.Prefix + ":" + id
}

func (r *SessionRegistry) userKey(userID string) string {
	return r.cfg.UserPrefix + ":" + userID
}

// Create stores a session record and registers it in the user's set. An
// empty sessionID gets a generated one.
func (r *SessionRegistry) Create(ctx context.Context, sessionID, userID string, user map[string]any, meta *session.Metadata) (*session.Session, error) {
	if !r.enabled {
		return nil, nil
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := time.Now()
	s := &session.Session{
		ID:           sessionID,
		UserID:       userID,
		User:         user,
		CreatedAt:    now,
		LastActivity: now,
	}
	if meta != nil {
		s.Metadata = *meta
	}
	if err := r.store.Set(ctx, r.sessionKey(sessionID), s, r.cfg.TTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	userKey := r.userKey(userID)
	if err := r.store.SAdd(ctx, userKey, sessionID); err != nil {
		return nil, fmt.Errorf("failed to register session for user: %w", err)
	}
	if err := r.store.Expire(ctx, userKey, r.cfg.TTL); err != nil {
		r.logWarn(sessionID, err, "failed to refresh user session set TTL")
	}
	return s, nil
}

// Get returns nil, nil when the session does not exist. On a hit the
// LastActivity refresh runs in the background and is not awaited; the
// returned record already carries the new timestamp.
func (r *SessionRegistry) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	if !r.enabled {
		return nil, nil
	}
	var s session.Session
	ok, err := r.store.Get(ctx, r.sessionKey(sessionID), &s)
	if err != nil || !ok {
		return nil, nil
	}
	s.LastActivity = time.Now()
	snapshot := s
	r.touch(func() {
		// Detached from the request context on purpose; a short deadline
		// keeps an unreachable store from pinning goroutines.
		bg, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := r.store.Set(bg, r.sessionKey(sessionID), &snapshot, r.cfg.TTL); err != nil {
			r.logWarn(sessionID, err, "failed to refresh session activity")
		}
	})
	return &s, nil
}

// Update merges fields into an existing record; absent records are a no-op.
func (r *SessionRegistry) Update(ctx context.Context, sessionID string, update session.Update) error {
	if !r.enabled {
		return nil
	}
	key := r.sessionKey(sessionID)
	var s session.Session
	ok, err := r.store.Get(ctx, key, &s)
	if err != nil || !ok {
		return nil
	}
	update.Apply(&s)
	s.LastActivity = time.Now()
	if err := r.store.Set(ctx, key, &s, r.cfg.TTL); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Delete removes the record and unregisters it from the owner's set. When
// the record is already gone the owner is unknown and the set keeps a stale
// id; that is tolerated and cleaned lazily by GetUserSessions.
func (r *SessionRegistry) Delete(ctx context.Context, sessionID string) error {
	if !r.enabled {
		return nil
	}
	key := r.sessionKey(sessionID)
	var s session.Session
	ok, err := r.store.Get(ctx, key, &s)
	if err == nil && ok {
		if err := r.store.SRem(ctx, r.userKey(s.UserID), sessionID); err != nil {
			r.logWarn(sessionID, err, "failed to remove session from user set")
		}
	}
	if _, err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetUserSessions resolves the user's session set, dropping ids whose
// records no longer exist, sorted by LastActivity descending.
func (r *SessionRegistry) GetUserSessions(ctx context.Context, userID string) ([]*session.Session, error) {
	if !r.enabled {
		return nil, nil
	}
	userKey := r.userKey(userID)
	ids, err := r.store.SMembers(ctx, userKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}
	sessions := make([]*session.Session, 0, len(ids))
	for _, id := range ids {
		var s session.Session
		ok, err := r.store.Get(ctx, r.sessionKey(id), &s)
		if err != nil || !ok {
			if err := r.store.SRem(ctx, userKey, id); err != nil {
				r.logWarn(id, err, "failed to prune stale session id")
			}
			continue
		}
		sessions = append(sessions, &s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
	return sessions, nil
}

// DeleteAllUserSessions revokes every session of the user except the given
// one ("sign out everywhere"). Returns the number of records deleted.
func (r *SessionRegistry) DeleteAllUserSessions(ctx context.Context, userID, exceptSessionID string) (int, error) {
	if !r.enabled {
		return 0, nil
	}
	userKey := r.userKey(userID)
	ids, err := r.store.SMembers(ctx, userKey)
	if err != nil {
		return 0, fmt.Errorf("failed to list user sessions: %w", err)
	}
	deleted := 0
	for _, id := range ids {
		if exceptSessionID != "" && id == exceptSessionID {
			continue
		}
		if _, err := r.store.Del(ctx, r.sessionKey(id)); err != nil {
			r.logWarn(id, err, "failed to delete session record")
			continue
		}
		if err := r.store.SRem(ctx, userKey, id); err != nil {
			r.logWarn(id, err, "failed to remove session id from user set")
		}
		deleted++
	}
	if exceptSessionID == "" {
		if _, err := r.store.Del(ctx, userKey); err != nil {
			r.logWarn(userID, err, "failed to delete user session set")
		}
	}
	return deleted, nil
}

// Stats counts session records against user sets via key scans.
func (r *SessionRegistry) Stats(ctx context.Context) (session.Stats, error) {
	userKeys, err := r.store.Keys(ctx, r.cfg.UserPrefix+":*")
	if err != nil {
		return session.Stats{}, fmt.Errorf("failed to scan user session sets: %w", err)
	}
	allKeys, err := r.store.Keys(ctx, r.cfg.Prefix+":*")
	if err != nil {
		return session.Stats{}, fmt.Errorf("failed to scan session records: %w", err)
	}
	// The user-set prefix nests under the session prefix, so subtract.
	return session.Stats{TotalSessions: len(allKeys) - len(userKeys), TotalUsers: len(userKeys)}, nil
}

func (r *SessionRegistry) logWarn(id string, err error, msg string) {
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"session_id": id}).WithError(err).Warn(msg)
	}
}

var _ ports.SessionStore = (*SessionRegistry)(nil)
