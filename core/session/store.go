// Package session holds the single source of truth for "who is signed in".
// A Store starts out Loading, resolves exactly once to Authenticated or
// Unauthenticated, and afterwards only transitions through explicit
// sign-in/sign-out. Subscribers are notified synchronously, in registration
// order, on every transition.
package session

import (
	"context"
	"sync"

	"github.com/tachera/mlango/core/user"
)

// State is the session lifecycle state.
type State int

const (
	// StateLoading is strictly the initial state; it is never re-entered.
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Session pairs the lifecycle state with the signed-in account.
// User is non-nil if and only if State is StateAuthenticated.
type Session struct {
	State State
	User  *user.User
}

// Authenticated returns an authenticated Session for usr.
func Authenticated(usr user.User) Session {
	return Session{State: StateAuthenticated, User: &usr}
}

// Anonymous returns an unauthenticated Session.
func Anonymous() Session {
	return Session{State: StateUnauthenticated}
}

// Authenticator is the external auth collaborator a Store signs in against.
type Authenticator interface {
	Authenticate(ctx context.Context, usernameOrEmail, password string) (user.User, error)
}

type subscriber struct {
	id int
	fn func(Session)
}

// Store is an observable holder of the current Session.
type Store struct {
	mu      sync.Mutex
	cur     Session
	subs    []subscriber
	nextID  int
	auth    Authenticator
}

func NewStore(auth Authenticator) *Store {
	return &Store{
		cur:  Session{State: StateLoading},
		auth: auth,
	}
}

// Session returns the current cached state.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Subscribe registers fn to be invoked on every session transition and
// returns an unsubscribe handle. fn is not invoked for the current state.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Resolve settles the initial Loading state from a restored account
// (nil means no persisted credentials). It is a no-op once the store has
// left Loading.
func (s *Store) Resolve(usr *user.User) {
	s.mu.Lock()
	if s.cur.State != StateLoading {
		s.mu.Unlock()
		return
	}
	if usr != nil {
		s.cur = Authenticated(*usr)
	} else {
		s.cur = Anonymous()
	}
	s.notifyLocked()
}

// SignIn authenticates the given credentials through the auth collaborator.
// On success the store transitions to Authenticated; on failure it settles
// Unauthenticated and returns the error unchanged (user.ErrInvalidCredentials,
// user.ErrRateLimited, or a wrapped transport error).
func (s *Store) SignIn(ctx context.Context, usernameOrEmail, password string) (user.User, error) {
	usr, err := s.auth.Authenticate(ctx, usernameOrEmail, password)

	s.mu.Lock()
	if err != nil {
		// a failed sign-in never leaves a stale identity behind
		if s.cur.State != StateUnauthenticated {
			s.cur = Anonymous()
			s.notifyLocked()
		} else {
			s.mu.Unlock()
		}
		return user.User{}, err
	}
	s.cur = Authenticated(usr)
	s.notifyLocked()
	return usr, nil
}

// SignOut clears the identity and notifies subscribers.
func (s *Store) SignOut() {
	s.mu.Lock()
	if s.cur.State == StateUnauthenticated {
		s.mu.Unlock()
		return
	}
	s.cur = Anonymous()
	s.notifyLocked()
}

// notifyLocked snapshots the subscriber list and current session, releases
// the lock, then delivers synchronously in registration order. Callers must
// hold s.mu; it is released on return.
func (s *Store) notifyLocked() {
	sess := s.cur
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(sess)
	}
}
