package users

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

// AuthInvalidator drops a memoized authorization result. Satisfied by
// authgate.Gate; needed because a user mutating their own authorization
// fields must not keep serving the stale memo.
type AuthInvalidator interface {
	Invalidate(subjectID string)
}

// ProfilePatch carries the self-service updatable fields.
type ProfilePatch struct {
	DisplayName docval.Field[string]
	PhotoURL    docval.Field[string]
}

func (p ProfilePatch) toDocument() docstore.Document {
	doc := docstore.Document{}
	p.DisplayName.Store(doc, "displayName")
	p.PhotoURL.Store(doc, "photoURL")
	return doc
}

// ProfileService owns the signed-in user's own record: creation on first
// sign-in, self-service updates, and the read-only local mirror.
type ProfileService struct {
	local  localstore.Store
	remote docstore.Store
	auth   authn.Authenticator
	gate   AuthInvalidator
	log    logging.Logger
	now    func() time.Time
}

func NewProfileService(local localstore.Store, remote docstore.Store, auth authn.Authenticator, gate AuthInvalidator, log logging.Logger) *ProfileService {
	return &ProfileService{
		local:  local,
		remote: remote,
		auth:   auth,
		gate:   gate,
		log:    log,
		now:    time.Now,
	}
}

// RecordSignIn upserts the user record for identity: first sign-in creates
// a complete record with default flags, later sign-ins merge the identity
// fields and the last-login timestamp. The result is mirrored locally.
func (s *ProfileService) RecordSignIn(ctx context.Context, identity *authn.Identity) error {
	if identity == nil {
		return common.ErrNotSignedIn
	}

	existing, err := s.remote.Get(ctx, common.CollectionUsers, identity.ID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		rec := &UserRecord{
			ID:          identity.ID,
			DisplayName: identity.DisplayName,
			Email:       identity.Email,
			PhotoURL:    identity.PhotoURL,
			LastLogin:   s.now(),
			Locked:      false,
			Role:        RoleUser,
		}
		if err := s.remote.Set(ctx, common.CollectionUsers, identity.ID, rec.ToDocument()); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		s.mirror(ctx, rec)
		return nil
	case err != nil:
		return fmt.Errorf("load profile: %w", err)
	}

	patch := docstore.Document{
		"displayName": identity.DisplayName,
		"email":       identity.Email,
		"photoURL":    identity.PhotoURL,
		"lastLogin":   s.now().UnixMilli(),
	}
	if err := s.remote.Merge(ctx, common.CollectionUsers, identity.ID, docval.Sanitize(map[string]any(patch)).(map[string]any)); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	rec := FromDocument(docstore.MergeInto(existing, patch))
	s.mirror(ctx, rec)
	return nil
}

// Current returns the signed-in user's record: remote first, falling back
// to the local mirror when the remote read fails. A successful remote read
// refreshes the mirror.
func (s *ProfileService) Current(ctx context.Context) (*UserRecord, error) {
	identity := s.auth.Current()
	if identity == nil {
		return nil, common.ErrNotSignedIn
	}

	doc, err := s.remote.Get(ctx, common.CollectionUsers, identity.ID)
	if err == nil {
		rec := FromDocument(doc)
		s.mirror(ctx, rec)
		return rec, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.log.Warn(ctx, "remote profile read failed, using local mirror", "error", err)
	}

	var rec UserRecord
	if lerr := s.local.Get(ctx, common.LocalKey(common.KeyUserProfile), &rec); lerr != nil {
		return nil, err
	}
	return &rec, nil
}

// Update merge-writes the self-service fields and refreshes the mirror.
func (s *ProfileService) Update(ctx context.Context, patch ProfilePatch) error {
	identity := s.auth.Current()
	if identity == nil {
		return common.ErrNotSignedIn
	}

	doc := patch.toDocument()
	if len(doc) == 0 {
		return nil
	}

	sanitized := docval.Sanitize(map[string]any(doc)).(map[string]any)
	if err := s.remote.Merge(ctx, common.CollectionUsers, identity.ID, sanitized); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if rec, err := s.Current(ctx); err == nil {
		s.mirror(ctx, rec)
	}
	return nil
}

// RedeemKey stores a license key on the user's own record and enables the
// feature flag. Since this mutates the caller's own authorization fields,
// the gate memo for this subject is invalidated afterwards.
func (s *ProfileService) RedeemKey(ctx context.Context, key string) error {
	identity := s.auth.Current()
	if identity == nil {
		return common.ErrNotSignedIn
	}

	patch := docstore.Document{
		"licenseKey":           key,
		"activeFeatureEnabled": true,
	}
	if err := s.remote.Merge(ctx, common.CollectionUsers, identity.ID, patch); err != nil {
		return fmt.Errorf("redeem key: %w", err)
	}

	s.gate.Invalidate(identity.ID)

	if rec, err := s.Current(ctx); err == nil {
		s.mirror(ctx, rec)
	}
	return nil
}

func (s *ProfileService) mirror(ctx context.Context, rec *UserRecord) {
	if err := s.local.Set(ctx, common.LocalKey(common.KeyUserProfile), rec); err != nil {
		s.log.Warn(ctx, "profile mirror to local cache failed", "error", err)
	}
}
