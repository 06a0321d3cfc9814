package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Identity persists which user is signed in on this device.
type Identity interface {
	CurrentUser() string
	SetCurrentUser(uid string) error
}

// Session follows the identity provider's lifecycle: sign-in resets the
// breaker and hydrates the cache, sign-out wipes the cache.
type Session struct {
	Service  *Service
	Identity Identity

	mu        sync.Mutex
	loading   bool
	onSignOut []func()
}

// NewSession returns a Session over svc. id may be nil, in which case the
// user is only tracked in memory.
func NewSession(svc *Service, id Identity) *Session {
	if id == nil {
		id = &memoryIdentity{}
	}
	return &Session{Service: svc, Identity: id}
}

// UserID returns the signed-in user, or "" when signed out.
func (s *Session) UserID() string {
	return s.Identity.CurrentUser()
}

// Loading reports whether a sign-in hydration is in progress.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// OnSignOut registers fn to run after SignOut cleared the cache.
func (s *Session) OnSignOut(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSignOut = append(s.onSignOut, fn)
}

// SignIn records uid, re-enables the remote store and pulls the user's
// remote data into the cache. A failed hydration is logged and reported as
// Aborted; it does not undo the sign-in and is not an error.
func (s *Session) SignIn(ctx context.Context, uid string) (HydrationReport, error) {
	if uid == "" {
		return HydrationReport{}, errors.New("app: user id required")
	}
	if err := s.Identity.SetCurrentUser(uid); err != nil {
		return HydrationReport{}, fmt.Errorf("app: record sign-in: %w", err)
	}
	s.Service.Breaker.Reset()

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	report, err := s.Service.SyncAllFromCloud(ctx, uid)
	if err != nil {
		s.Service.log().Warnw("sign-in hydration aborted, keeping local data", "user", uid, "error", err)
		return HydrationReport{Aborted: true}, nil
	}
	return report, nil
}

// SignOut clears the whole local cache, including the identity slot.
func (s *Session) SignOut() error {
	if s.Service.Cache != nil {
		s.Service.Cache.Clear()
	}
	s.Service.tokens.reset()
	err := s.Identity.SetCurrentUser("")

	s.mu.Lock()
	hooks := append([]func(){}, s.onSignOut...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	if err != nil {
		return fmt.Errorf("app: record sign-out: %w", err)
	}
	return nil
}

type memoryIdentity struct {
	mu  sync.Mutex
	uid string
}

func (m *memoryIdentity) CurrentUser() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uid
}

func (m *memoryIdentity) SetCurrentUser(uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uid = uid
	return nil
}
