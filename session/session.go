// Package session holds the signed-in user's identity and short-lived
// service tokens. It is the single place server responses refresh
// credentials into; nothing in this module persists them.
package session

import "sync"

// Tokens are the short-lived credentials a server response may carry.
// Empty fields mean "unchanged".
type Tokens struct {
	SessionToken    string
	MediaToken      string
	WhiteboardToken string
}

type Store struct {
	mu       sync.RWMutex
	userUUID string
	tokens   Tokens
}

func NewStore() *Store {
	return &Store{}
}

// SignIn records the authenticated user. An empty UUID signs out.
func (s *Store) SignIn(userUUID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userUUID = userUUID
	if userUUID == "" {
		s.tokens = Tokens{}
	}
}

func (s *Store) UserUUID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userUUID
}

// UpdateTokens merges the non-empty fields of tokens over the stored ones.
func (s *Store) UpdateTokens(tokens Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tokens.SessionToken != "" {
		s.tokens.SessionToken = tokens.SessionToken
	}
	if tokens.MediaToken != "" {
		s.tokens.MediaToken = tokens.MediaToken
	}
	if tokens.WhiteboardToken != "" {
		s.tokens.WhiteboardToken = tokens.WhiteboardToken
	}
}

func (s *Store) Tokens() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}
