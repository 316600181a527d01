// Package modstore implements the per-module persistence protocol: named
// per-user data buckets read through and written through between the
// local cache and the remote document store, gated by write privilege.
//
// The contract is asymmetric on purpose. Writes always land in the local
// cache first — that is the durability floor and it never depends on
// connectivity. The remote write is best-effort: attempted only when the
// session holds write privilege, and its outcome is reported on an
// optional event channel instead of failing the call.
package modstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dayhubapp/dayhub/internal/authn"
	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/docstore"
	"github.com/dayhubapp/dayhub/internal/docval"
	"github.com/dayhubapp/dayhub/internal/localstore"
	"github.com/dayhubapp/dayhub/internal/logging"
)

// WriteGate answers whether the subject may sync to the remote store.
type WriteGate interface {
	HasWritePrivilege(ctx context.Context, subject *authn.Identity) bool
}

// SyncEvent reports the remote half of a two-phase module write.
type SyncEvent struct {
	// Module is the bucket name.
	Module string

	// Attempted is false when the session had no write privilege and the
	// remote write was skipped.
	Attempted bool

	// Err is the remote write outcome; nil on success or when skipped.
	Err error
}

type Store struct {
	local  localstore.Store
	remote docstore.Store
	gate   WriteGate
	auth   authn.Authenticator
	log    logging.Logger
	events chan<- SyncEvent
}

type Option func(*Store)

// WithEvents makes the store report remote write outcomes on ch. Sends
// never block; if ch is full the event is dropped.
func WithEvents(ch chan<- SyncEvent) Option {
	return func(s *Store) { s.events = ch }
}

func New(local localstore.Store, remote docstore.Store, gate WriteGate, auth authn.Authenticator, log logging.Logger, opts ...Option) *Store {
	s := &Store{local: local, remote: remote, gate: gate, auth: auth, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func moduleDocID(userID, module string) string {
	return userID + ":" + module
}

// Read returns the freshest known state of the module bucket, or nil when
// none exists. When the session holds write privilege the remote store is
// consulted first and a successful fetch is mirrored into the local cache,
// so cold starts without connectivity still see the last synced state.
// Otherwise, and on any remote failure, the local cache value is returned.
func (s *Store) Read(ctx context.Context, module string) (any, error) {
	subject := s.auth.Current()

	if subject != nil && s.gate.HasWritePrivilege(ctx, subject) {
		doc, err := s.remote.Get(ctx, common.CollectionUserModules, moduleDocID(subject.ID, module))
		switch {
		case err == nil:
			data := doc["data"]
			if err := s.local.Set(ctx, common.ModuleKey(module), data); err != nil {
				s.log.Warn(ctx, "module mirror to local cache failed", "module", module, "error", err)
			}
			return data, nil
		case errors.Is(err, common.ErrNotFound):
			// Nothing synced yet; local may hold unsynced edits.
		default:
			s.log.Warn(ctx, "remote module read failed, falling back to local cache",
				"module", module, "error", err)
		}
	}

	var data any
	err := s.local.Get(ctx, common.ModuleKey(module), &data)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Error(ctx, "local module read failed", "module", module, "error", err)
		}
		return nil, nil
	}
	return data, nil
}

// Write sanitizes value and commits it locally; this never fails the
// caller. If the session holds write privilege the value is additionally
// written to the remote per-user module document, and the outcome is
// reported via the event channel. An empty collection is a meaningful
// value and is persisted like any other.
func (s *Store) Write(ctx context.Context, module string, value any) {
	sanitized := docval.Sanitize(value)

	if err := s.local.Set(ctx, common.ModuleKey(module), sanitized); err != nil {
		// In-memory state stays authoritative for this session even if
		// persistence silently degrades.
		s.log.Error(ctx, "local module write failed", "module", module, "error", err)
	}

	subject := s.auth.Current()
	if subject == nil || !s.gate.HasWritePrivilege(ctx, subject) {
		s.emit(SyncEvent{Module: module})
		return
	}

	doc := docstore.Document{
		"userId":    subject.ID,
		"module":    module,
		"data":      sanitized,
		"updatedAt": time.Now().UnixMilli(),
	}

	err := s.remote.Set(ctx, common.CollectionUserModules, moduleDocID(subject.ID, module), doc)
	if err != nil {
		// Local durability already succeeded; the edit is not lost,
		// just not yet synced.
		s.log.Warn(ctx, "remote module write failed", "module", module, "error", err)
		err = fmt.Errorf("remote write: %w", err)
	}
	s.emit(SyncEvent{Module: module, Attempted: true, Err: err})
}

func (s *Store) emit(ev SyncEvent) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}
