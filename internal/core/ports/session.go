package ports

import (
	"context"

	"github.com/oeeez/artistly-platform/internal/core/domain/session"
)

// SessionStore tracks active sessions per user for multi-device management
// and forced sign-out. Set membership is best-effort: a session record may
// expire while its id lingers in the user's set, and reads tolerate that.
type SessionStore interface {
	Create(ctx context.Context, sessionID, userID string, user map[string]any, meta *session.Metadata) (*session.Session, error)
	// Get returns nil, nil when the session does not exist. A successful
	// read refreshes LastActivity in the background, best-effort.
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	// Update merges fields into an existing record; absent records are a no-op.
	Update(ctx context.Context, sessionID string, update session.Update) error
	Delete(ctx context.Context, sessionID string) error
	// GetUserSessions returns the user's live sessions, most recently
	// active first. Ids that no longer resolve are skipped.
	GetUserSessions(ctx context.Context, userID string) ([]*session.Session, error)
	// DeleteAllUserSessions revokes every session of the user except the
	// given one ("sign out everywhere"). Returns the number deleted.
	DeleteAllUserSessions(ctx context.Context, userID, exceptSessionID string) (int, error)
	Stats(ctx context.Context) (session.Stats, error)
}
