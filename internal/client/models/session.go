package models

import "time"

// SessionVersion is the current session file layout.
const SessionVersion = 1

// Session is the serialisable portal login: the cookies the server issued.
// It has no expiry of its own; the server tells us when it stopped
// accepting it.
type Session struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Cookies []Cookie  `json:"cookies"`
}

// Cookie is one persisted cookie.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Path   string `json:"path,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// Empty reports whether s carries nothing worth restoring.
func (s *Session) Empty() bool {
	return s == nil || len(s.Cookies) == 0
}
