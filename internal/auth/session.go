// Package auth keeps the control-panel session state. The store is created
// at startup and handed to route registration; nothing here is global.
package auth

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("capability not granted")
)

// Capability names an action a route may require.
type Capability string

const (
	CapViewDashboard Capability = "view_dashboard"
	CapControlDrones Capability = "control_drones"
)

// anonymousCaps are granted to visitors who continue without logging in.
var anonymousCaps = []Capability{CapViewDashboard}

var operatorCaps = []Capability{CapViewDashboard, CapControlDrones}

// Session is one logged-in operator.
type Session struct {
	Token        string       `json:"token"`
	Username     string       `json:"username"`
	Capabilities []Capability `json:"capabilities"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

// Can reports whether the session carries c.
func (s Session) Can(c Capability) bool {
	for _, have := range s.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Anonymous is the session used when no token is presented.
func Anonymous() Session {
	caps := make([]Capability, len(anonymousCaps))
	copy(caps, anonymousCaps)
	return Session{Capabilities: caps}
}

// Credentials configures who may log in. An empty PasswordHash puts the
// store in open mode, where any non-empty username and password pair is
// accepted.
type Credentials struct {
	Username     string
	PasswordHash string
}

// SessionStore issues and checks session tokens.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	creds    Credentials
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(creds Credentials, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if creds.PasswordHash == "" {
		log.Println("WARN: auth: no operator password hash configured; any non-empty credentials will be accepted")
	}
	return &SessionStore{
		sessions: make(map[string]Session),
		creds:    creds,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login checks the credentials and opens a session.
func (s *SessionStore) Login(username, password string) (Session, error) {
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	if s.creds.PasswordHash != "" {
		if username != s.creds.Username {
			return Session{}, ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword([]byte(s.creds.PasswordHash), []byte(password)); err != nil {
			return Session{}, ErrInvalidCredentials
		}
	}

	caps := make([]Capability, len(operatorCaps))
	copy(caps, operatorCaps)
	sess := Session{
		Token:        uuid.NewString(),
		Username:     username,
		Capabilities: caps,
		ExpiresAt:    s.now().Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	s.sessions[sess.Token] = sess
	return sess, nil
}

// Lookup resolves a token. An empty token yields the anonymous session.
func (s *SessionStore) Lookup(token string) (Session, error) {
	if token == "" {
		return Anonymous(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrUnauthorized
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, ErrUnauthorized
	}
	return sess, nil
}

// Logout ends the session behind token. Unknown tokens are ignored.
func (s *SessionStore) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Authorize resolves token and checks it carries c.
func (s *SessionStore) Authorize(token string, c Capability) (Session, error) {
	sess, err := s.Lookup(token)
	if err != nil {
		return Session{}, err
	}
	if !sess.Can(c) {
		if sess.Token == "" {
			return Session{}, ErrUnauthorized
		}
		return Session{}, ErrForbidden
	}
	return sess, nil
}

func (s *SessionStore) purgeLocked() {
	now := s.now()
	for token, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
