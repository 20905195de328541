package session

import "time"

// Metadata captures where a session was established from.
type Metadata struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Device    string `json:"device,omitempty"`
}

// Session is one authenticated device session for a user. The User payload
// is an opaque snapshot supplied by the identity provider at sign-in; this
// service stores it verbatim and never interprets it.
type Session struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	User         map[string]any `json:"user,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
	Metadata     Metadata       `json:"metadata"`
}

// Update is a partial session update. Nil/empty fields are left untouched;
// User keys are merged into the existing payload.
type Update struct {
	User      map[string]any
	IPAddress string
	UserAgent string
	Device    string
}

// Stats counts session records against per-user session sets, derived from
// a key scan. The two drift under expiry; that is expected.
type Stats struct {
	TotalSessions int `json:"total_sessions"`
	TotalUsers    int `json:"total_users"`
}

// Apply merges u into s.
func (u Update) Apply(s *Session) {
	if u.User != nil {
		if s.User == nil {
			s.User = make(map[string]any, len(u.User))
		}
		for k, v := range u.User {
			s.User[k] = v
		}
	}
	if u.IPAddress != "" {
		s.Metadata.IPAddress = u.IPAddress
	}
	if u.UserAgent != "" {
		s.Metadata.UserAgent = u.UserAgent
	}
	if u.Device != "" {
		s.Metadata.Device = u.Device
	}
}
