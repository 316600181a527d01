package authn

import (
	"context"
	"sync"
)

// Static is an Authenticator with a directly assignable identity. Tests
// and the admin CLI use it where no token exchange is involved.
type Static struct {
	mu      sync.Mutex
	current *Identity
	subs    []func(*Identity)
}

func NewStatic(identity *Identity) *Static {
	return &Static{current: identity}
}

func (s *Static) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	id := *s.current
	return &id
}

// SignInAs switches the session to the given identity and notifies
// subscribers.
func (s *Static) SignInAs(identity *Identity) {
	s.mu.Lock()
	s.current = identity
	subs := append([]func(*Identity){}, s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(identity)
	}
}

func (s *Static) SignIn(ctx context.Context, credential string) (*Identity, error) {
	return s.Current(), nil
}

func (s *Static) SignOut(ctx context.Context) error {
	s.SignInAs(nil)
	return nil
}

func (s *Static) Subscribe(fn func(*Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, fn)
	i := len(s.subs) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs[i] = func(*Identity) {}
	}
}
