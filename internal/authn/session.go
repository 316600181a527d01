package authn

import (
	"context"
	"sync"
	"time"

	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity fields the provider embeds in its ID tokens,
// on top of the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Session is a token-based Authenticator: SignIn validates an HS256 ID
// token and holds the resulting identity until SignOut.
type Session struct {
	secret []byte

	mu      sync.Mutex
	current *Identity
	subs    map[int]func(*Identity)
	nextSub int
}

func NewSession(secret []byte) *Session {
	return &Session{secret: secret, subs: make(map[int]func(*Identity))}
}

func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	id := *s.current
	return &id
}

func (s *Session) SignIn(ctx context.Context, credential string) (*Identity, error) {
	claims, err := VerifyToken(credential, s.secret)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
	}

	s.mu.Lock()
	s.current = identity
	fns := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(identity)
	}

	id := *identity
	return &id, nil
}

func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	wasSignedIn := s.current != nil
	s.current = nil
	fns := s.snapshotSubs()
	s.mu.Unlock()

	if wasSignedIn {
		for _, fn := range fns {
			fn(nil)
		}
	}
	return nil
}

func (s *Session) Subscribe(fn func(*Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// snapshotSubs must be called with mu held.
func (s *Session) snapshotSubs() []func(*Identity) {
	fns := make([]func(*Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

// GenerateToken signs an ID token for the given identity. Used by tests
// and local development tooling.
func GenerateToken(identity Identity, secret []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		Email:   identity.Email,
		Name:    identity.DisplayName,
		Picture: identity.PhotoURL,
	})
	return token.SignedString(secret)
}

// VerifyToken parses and validates an ID token, returning its claims.
func VerifyToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
