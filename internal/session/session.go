// Package session carries the caller's identity through the scan pipeline.
package session

import "strings"

// Session identifies who is scanning. The zero value is a guest.
type Session struct {
	UserID      string
	DisplayName string
	AccessToken string
}

// Guest returns an anonymous session.
func Guest() Session {
	return Session{}
}

// New returns an authenticated session. Blank values yield a guest.
func New(userID, displayName, accessToken string) Session {
	s := Session{
		UserID:      strings.TrimSpace(userID),
		DisplayName: strings.TrimSpace(displayName),
		AccessToken: strings.TrimSpace(accessToken),
	}
	if !s.Authenticated() {
		return Guest()
	}
	return s
}

// Authenticated reports whether the session carries a user and a token.
func (s Session) Authenticated() bool {
	return s.UserID != "" && s.AccessToken != ""
}

// BearerToken is the token to attach to outbound calls, empty for guests.
func (s Session) BearerToken() string {
	if !s.Authenticated() {
		return ""
	}
	return s.AccessToken
}

// Name is the display name, falling back to the user id.
func (s Session) Name() string {
	switch {
	case !s.Authenticated():
		return "guest"
	case s.DisplayName != "":
		return s.DisplayName
	default:
		return s.UserID
	}
}
