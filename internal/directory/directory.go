// Package directory is the administrative surface over the full user
// collection: listing, status toggles, locking, license key assignment and
// profile lifecycle. Every operation requires the caller's session to be
// the distinguished administrator identity and is rejected before any
// remote call otherwise; unlike module writes, failures here are surfaced
// because the operator has no local fallback of equal authority.
package directory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dayhubapp/dayhub/internal/authn"
	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/docstore"
	"github.com/dayhubapp/dayhub/internal/docval"
	"github.com/dayhubapp/dayhub/internal/logging"
	"github.com/dayhubapp/dayhub/internal/users"
	"github.com/google/uuid"
)

// AdminGate answers whether subject is the administrator identity.
type AdminGate interface {
	IsAdmin(subject *authn.Identity) bool
}

// StatusPatch carries the administratively mutable fields. Unset fields
// are left untouched; cleared fields are written as explicit null.
type StatusPatch struct {
	ActiveFeatureEnabled docval.Field[bool]
	StorageEnabled       docval.Field[bool]
	Locked               docval.Field[bool]
	LockReason           docval.Field[string]
	Role                 docval.Field[string]

	// ExpiresAt in Unix milliseconds; Clear removes the expiration,
	// making the account permanent.
	ExpiresAt docval.Field[int64]
}

func (p StatusPatch) toDocument() docstore.Document {
	doc := docstore.Document{}
	p.ActiveFeatureEnabled.Store(doc, "activeFeatureEnabled")
	p.StorageEnabled.Store(doc, "storageEnabled")
	p.Locked.Store(doc, "locked")
	p.LockReason.Store(doc, "lockReason")
	p.Role.Store(doc, "role")
	p.ExpiresAt.Store(doc, "expiresAt")
	return doc
}

// NewProfile carries the fields for administratively created records.
type NewProfile struct {
	ID          string
	DisplayName string
	Email       string
	Role        string

	StorageEnabled       bool
	ActiveFeatureEnabled bool
	LicenseKey           string
	ExpiresAt            *time.Time
}

type Service struct {
	remote docstore.Store
	auth   authn.Authenticator
	gate   AdminGate
	log    logging.Logger
}

func NewService(remote docstore.Store, auth authn.Authenticator, gate AdminGate, log logging.Logger) *Service {
	return &Service{remote: remote, auth: auth, gate: gate, log: log}
}

func (s *Service) authorize() error {
	if !s.gate.IsAdmin(s.auth.Current()) {
		return common.ErrUnauthorized
	}
	return nil
}

// ListAll returns every user record, sorted by email. The collection is
// bounded by the expected user-base size, so no pagination.
func (s *Service) ListAll(ctx context.Context) ([]*users.UserRecord, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}

	docs, err := s.remote.Query(ctx, common.CollectionUsers, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	result := make([]*users.UserRecord, 0, len(docs))
	for _, doc := range docs {
		result = append(result, users.FromDocument(doc))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

// Get returns a single user record.
func (s *Service) Get(ctx context.Context, targetID string) (*users.UserRecord, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}

	doc, err := s.remote.Get(ctx, common.CollectionUsers, targetID)
	if err != nil {
		return nil, err
	}
	return users.FromDocument(doc), nil
}

// SetStatus sanitizes and merge-writes the patch onto the target record.
func (s *Service) SetStatus(ctx context.Context, targetID string, patch StatusPatch) error {
	if err := s.authorize(); err != nil {
		return err
	}

	doc := patch.toDocument()
	if len(doc) == 0 {
		return nil
	}

	sanitized := docval.Sanitize(map[string]any(doc)).(map[string]any)
	if err := s.remote.Merge(ctx, common.CollectionUsers, targetID, sanitized); err != nil {
		return fmt.Errorf("set status: %w", err)
	}

	s.log.Info(ctx, "user status updated", "target", targetID)
	return nil
}

// AssignKey stores a license key on the target record and flips the
// feature flag on: holding a key means the feature is active.
func (s *Service) AssignKey(ctx context.Context, targetID, key string) error {
	if err := s.authorize(); err != nil {
		return err
	}

	patch := docstore.Document{
		"licenseKey":           key,
		"activeFeatureEnabled": true,
	}
	if err := s.remote.Merge(ctx, common.CollectionUsers, targetID, patch); err != nil {
		return fmt.Errorf("assign key: %w", err)
	}

	s.log.Info(ctx, "license key assigned", "target", targetID)
	return nil
}

// RevokeKey deletes the license key field and flips the feature flag off.
func (s *Service) RevokeKey(ctx context.Context, targetID string) error {
	if err := s.authorize(); err != nil {
		return err
	}

	patch := docstore.Document{
		"licenseKey":           docval.Delete{},
		"activeFeatureEnabled": false,
	}
	if err := s.remote.Merge(ctx, common.CollectionUsers, targetID, patch); err != nil {
		return fmt.Errorf("revoke key: %w", err)
	}

	s.log.Info(ctx, "license key revoked", "target", targetID)
	return nil
}

// CreateProfile writes a complete new record. A missing ID gets a
// generated one; defaults are locked=false, role=user.
func (s *Service) CreateProfile(ctx context.Context, profile NewProfile) (*users.UserRecord, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}

	rec := &users.UserRecord{
		ID:                   profile.ID,
		DisplayName:          profile.DisplayName,
		Email:                profile.Email,
		Role:                 profile.Role,
		StorageEnabled:       profile.StorageEnabled,
		ActiveFeatureEnabled: profile.ActiveFeatureEnabled,
		LicenseKey:           profile.LicenseKey,
		ExpiresAt:            profile.ExpiresAt,
		Locked:               false,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Role == "" {
		rec.Role = users.RoleUser
	}
	if rec.LicenseKey != "" {
		rec.ActiveFeatureEnabled = true
	}

	doc := docval.Sanitize(map[string]any(rec.ToDocument())).(map[string]any)
	if err := s.remote.Set(ctx, common.CollectionUsers, rec.ID, doc); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.log.Info(ctx, "profile created", "target", rec.ID)
	return rec, nil
}

// DeleteUser hard-deletes the record. Irreversible; intent confirmation
// is the caller's concern.
func (s *Service) DeleteUser(ctx context.Context, targetID string) error {
	if err := s.authorize(); err != nil {
		return err
	}

	if err := s.remote.Delete(ctx, common.CollectionUsers, targetID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.log.Info(ctx, "user deleted", "target", targetID)
	return nil
}
