// Package authgate decides whether a signed-in subject participates in
// remote persistence. The decision needs the subject's remote user record,
// so the gate fetches it once per session and memoizes it; everything else
// is evaluated locally. Failures resolve to "not authorized" for that
// attempt without poisoning the memo, so the next check retries.
package authgate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dayhubapp/dayhub/internal/authn"
	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/docstore"
	"github.com/dayhubapp/dayhub/internal/logging"
	"github.com/dayhubapp/dayhub/internal/users"
)

type Gate struct {
	remote     docstore.Store
	adminEmail string
	log        logging.Logger

	// now is swappable for expiration tests.
	now func() time.Time

	mu   sync.Mutex
	memo map[string]*users.UserRecord
}

func NewGate(remote docstore.Store, adminEmail string, log logging.Logger) *Gate {
	return &Gate{
		remote:     remote,
		adminEmail: adminEmail,
		log:        log,
		now:        time.Now,
		memo:       make(map[string]*users.UserRecord),
	}
}

// IsAdmin reports whether subject is the distinguished administrator
// identity. Purely local, no remote call.
func (g *Gate) IsAdmin(subject *authn.Identity) bool {
	return subject != nil && strings.EqualFold(subject.Email, g.adminEmail)
}

// IsAuthorized reports whether subject is entitled to remote persistence:
// storage enabled OR the active feature flag, unless locked or expired.
func (g *Gate) IsAuthorized(ctx context.Context, subject *authn.Identity) bool {
	return g.check(ctx, subject, func(rec *users.UserRecord) bool {
		return rec.StorageEnabled || rec.ActiveFeatureEnabled
	})
}

// HasWritePrivilege is the narrower gate used for module sync and binary
// payload uploads: same lock/expiration rules, but only the storage flag
// counts.
func (g *Gate) HasWritePrivilege(ctx context.Context, subject *authn.Identity) bool {
	return g.check(ctx, subject, func(rec *users.UserRecord) bool {
		return rec.StorageEnabled
	})
}

func (g *Gate) check(ctx context.Context, subject *authn.Identity, allowed func(*users.UserRecord) bool) bool {
	if subject == nil {
		return false
	}
	if g.IsAdmin(subject) {
		return true
	}

	rec, err := g.record(ctx, subject.ID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			g.log.Warn(ctx, "authorization check failed, denying this attempt",
				"subject", subject.ID, "error", err)
		}
		// Fail closed; nothing memoized so a later check retries.
		return false
	}

	if rec.Locked {
		return false
	}
	if rec.Expired(g.now()) {
		return false
	}
	return allowed(rec)
}

// record returns the memoized user record, fetching it remotely at most
// once per signed-in session.
func (g *Gate) record(ctx context.Context, subjectID string) (*users.UserRecord, error) {
	g.mu.Lock()
	rec, ok := g.memo[subjectID]
	g.mu.Unlock()
	if ok {
		return rec, nil
	}

	doc, err := g.remote.Get(ctx, common.CollectionUsers, subjectID)
	if err != nil {
		return nil, err
	}

	rec = users.FromDocument(doc)
	g.mu.Lock()
	g.memo[subjectID] = rec
	g.mu.Unlock()
	return rec, nil
}

// Invalidate drops the memoized record for one subject. Callers must use
// it after mutating their own authorization fields.
func (g *Gate) Invalidate(subjectID string) {
	g.mu.Lock()
	delete(g.memo, subjectID)
	g.mu.Unlock()
}

// Reset drops every memoized record.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.memo = make(map[string]*users.UserRecord)
	g.mu.Unlock()
}

// Watch resets the memo whenever sign-in state changes. Returns the
// unsubscribe func.
func (g *Gate) Watch(auth authn.Authenticator) func() {
	return auth.Subscribe(func(*authn.Identity) {
		g.Reset()
	})
}
