package identity

import (
	"context"
	"sync"
)

// Static is an Oracle with a fixed, settable user and no credential checks.
// Tests use it to drive components through sign-in and sign-out.
type Static struct {
	mu        sync.Mutex
	uid       string
	listeners map[int]AuthStateListener
	nextID    int
}

func NewStatic(uid string) *Static {
	return &Static{uid: uid, listeners: make(map[int]AuthStateListener)}
}

func (s *Static) CurrentUser() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid, s.uid != ""
}

// SignIn signs in as email, used verbatim as the uid.
func (s *Static) SignIn(_ context.Context, email, _ string) error {
	s.Set(email)
	return nil
}

func (s *Static) CreateUser(_ context.Context, email, _ string) (string, error) {
	s.Set(email)
	return email, nil
}

func (s *Static) SignOut() error {
	s.Set("")
	return nil
}

// Set switches the current user and notifies listeners.
func (s *Static) Set(uid string) {
	s.mu.Lock()
	s.uid = uid
	fns := make([]AuthStateListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(uid)
	}
}

func (s *Static) OnAuthStateChange(fn AuthStateListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
