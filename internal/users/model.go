// Package users holds the user record model and the profile service:
// upsert-on-sign-in, self-service updates and the read-through local
// mirror of the signed-in user's own record.
package users

import (
	"time"

	"github.com/dayhubapp/dayhub/internal/docstore"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// UserRecord is the remote-owned user document. The local cache only ever
// holds a read-only mirror of it.
type UserRecord struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL,omitempty"`

	LastLogin time.Time `json:"lastLogin"`

	ActiveFeatureEnabled bool   `json:"activeFeatureEnabled"`
	StorageEnabled       bool   `json:"storageEnabled"`
	Locked               bool   `json:"locked"`
	LockReason           string `json:"lockReason,omitempty"`

	Role       string `json:"role"`
	LicenseKey string `json:"licenseKey,omitempty"`

	// ExpiresAt is nil for permanent accounts.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the record carries an expiration in the past.
func (u *UserRecord) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && now.After(*u.ExpiresAt)
}

// ToDocument converts the record into its remote document form.
// Timestamps are stored as Unix milliseconds.
func (u *UserRecord) ToDocument() docstore.Document {
	doc := docstore.Document{
		"id":                   u.ID,
		"displayName":          u.DisplayName,
		"email":                u.Email,
		"photoURL":             u.PhotoURL,
		"lastLogin":            u.LastLogin.UnixMilli(),
		"activeFeatureEnabled": u.ActiveFeatureEnabled,
		"storageEnabled":       u.StorageEnabled,
		"locked":               u.Locked,
		"role":                 u.Role,
	}
	if u.LockReason != "" {
		doc["lockReason"] = u.LockReason
	}
	if u.LicenseKey != "" {
		doc["licenseKey"] = u.LicenseKey
	}
	if u.ExpiresAt != nil {
		doc["expiresAt"] = u.ExpiresAt.UnixMilli()
	}
	return doc
}

// FromDocument rebuilds a record from its remote document form, tolerating
// missing fields and JSON number decoding (float64).
func FromDocument(doc docstore.Document) *UserRecord {
	u := &UserRecord{
		ID:                   asString(doc["id"]),
		DisplayName:          asString(doc["displayName"]),
		Email:                asString(doc["email"]),
		PhotoURL:             asString(doc["photoURL"]),
		ActiveFeatureEnabled: asBool(doc["activeFeatureEnabled"]),
		StorageEnabled:       asBool(doc["storageEnabled"]),
		Locked:               asBool(doc["locked"]),
		LockReason:           asString(doc["lockReason"]),
		Role:                 asString(doc["role"]),
		LicenseKey:           asString(doc["licenseKey"]),
	}
	if ms, ok := asMillis(doc["lastLogin"]); ok {
		u.LastLogin = time.UnixMilli(ms)
	}
	if ms, ok := asMillis(doc["expiresAt"]); ok {
		t := time.UnixMilli(ms)
		u.ExpiresAt = &t
	}
	return u
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
