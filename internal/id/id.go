// Package id defines the opaque identifier value objects shared across the
// policy store domain model.
package id

import "errors"

// ErrEmpty is returned when an identifier is constructed from an empty string.
var ErrEmpty = errors.New("identifier must not be empty")

// PolicyStoreId identifies a policy store. It is opaque to the core.
type PolicyStoreId string

// NewPolicyStoreId validates and wraps a raw string as a PolicyStoreId.
func NewPolicyStoreId(raw string) (PolicyStoreId, error) {
	if raw == "" {
		return "", ErrEmpty
	}
	return PolicyStoreId(raw), nil
}

func (i PolicyStoreId) String() string { return string(i) }

// PolicyId identifies a policy within its owning store.
type PolicyId string

// NewPolicyId validates and wraps a raw string as a PolicyId.
func NewPolicyId(raw string) (PolicyId, error) {
	if raw == "" {
		return "", ErrEmpty
	}
	return PolicyId(raw), nil
}

func (i PolicyId) String() string { return string(i) }

// TemplateId identifies a policy template within its owning store.
type TemplateId string

// NewTemplateId validates and wraps a raw string as a TemplateId.
func NewTemplateId(raw string) (TemplateId, error) {
	if raw == "" {
		return "", ErrEmpty
	}
	return TemplateId(raw), nil
}

func (i TemplateId) String() string { return string(i) }

// IdentitySourceId identifies an identity source within its owning store.
type IdentitySourceId string

// NewIdentitySourceId validates and wraps a raw string as an IdentitySourceId.
func NewIdentitySourceId(raw string) (IdentitySourceId, error) {
	if raw == "" {
		return "", ErrEmpty
	}
	return IdentitySourceId(raw), nil
}

func (i IdentitySourceId) String() string { return string(i) }

// SnapshotId identifies a point-in-time snapshot of a store.
type SnapshotId string

// NewSnapshotId validates and wraps a raw string as a SnapshotId.
func NewSnapshotId(raw string) (SnapshotId, error) {
	if raw == "" {
		return "", ErrEmpty
	}
	return SnapshotId(raw), nil
}

func (i SnapshotId) String() string { return string(i) }
