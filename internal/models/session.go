package models

// Session is the authenticated identity handed to every operation that
// talks to the backend. It is passed explicitly rather than held in a
// package-level global so the authorization dependency stays visible.
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Authenticated reports whether the session carries a bearer token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}
