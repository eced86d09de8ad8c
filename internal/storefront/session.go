package storefront

import (
	"context"
	"sync"

	"github.com/vastra/storefront/internal/apiclient"
)

// AuthBackend is the part of the REST API the session uses
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*apiclient.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (*apiclient.AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*apiclient.User, error)
}

// Session tracks the signed-in user
type Session struct {
	backend AuthBackend

	mu      sync.Mutex
	user    *apiclient.User
	status  Status
	lastErr string
}

// NewSession creates a signed-out session
func NewSession(backend AuthBackend) *Session {
	return &Session{backend: backend, status: StatusIdle}
}

// Login signs in with email and password
func (s *Session) Login(ctx context.Context, email, password string) (*apiclient.User, error) {
	return s.authenticate(func() (*apiclient.AuthResponse, error) {
		return s.backend.Login(ctx, email, password)
	})
}

// Register creates an account and signs in
func (s *Session) Register(ctx context.Context, name, email, password string) (*apiclient.User, error) {
	return s.authenticate(func() (*apiclient.AuthResponse, error) {
		return s.backend.Register(ctx, name, email, password)
	})
}

func (s *Session) authenticate(call func() (*apiclient.AuthResponse, error)) (*apiclient.User, error) {
	s.mu.Lock()
	s.status = StatusLoading
	s.mu.Unlock()

	resp, err := call()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusFailed
		s.lastErr = apiclient.Message(err)
		return nil, err
	}
	user := resp.User
	s.user = &user
	s.status = StatusSucceeded
	s.lastErr = ""
	return &user, nil
}

// Restore loads the current user from held tokens, e.g. after a restart
func (s *Session) Restore(ctx context.Context) (*apiclient.User, error) {
	user, err := s.backend.Me(ctx)
	if err != nil {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Lock()
	s.user = user
	s.status = StatusSucceeded
	s.mu.Unlock()
	return user, nil
}

// Logout revokes the session server-side and forgets the user
func (s *Session) Logout(ctx context.Context) error {
	err := s.backend.Logout(ctx)
	s.reset()
	return err
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.status = StatusIdle
	s.lastErr = ""
}

// User returns the signed-in user, or nil
func (s *Session) User() *apiclient.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAdmin reports whether the signed-in user has the admin role
func (s *Session) IsAdmin() bool {
	u := s.User()
	return u != nil && u.Role == "admin"
}

// Err returns the last authentication error message
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
