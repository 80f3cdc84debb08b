package authzmodel

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/wso2/policy-authz/internal/id"
)

// Status is the lifecycle status of a policy store.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ErrDefaultIdentitySourceNotListed is returned when a store's default
// identity source id does not appear in its identity source list.
var ErrDefaultIdentitySourceNotListed = errors.New("default identity source must be one of the store's identity sources")

// PolicyStore is the authorization-isolation container that owns a set of
// policies, templates, and a schema. Tags are kept in insertion order for
// display but are unique by value.
type PolicyStore struct {
	Id          id.PolicyStoreId
	Name        string
	Description string
	Status      Status
	Version     string
	Author      string

	tags []string

	identitySources        []id.IdentitySourceId
	defaultIdentitySourceId *id.IdentitySourceId

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPolicyStore constructs a store in the active status with the given name.
func NewPolicyStore(storeId id.PolicyStoreId, name, author string, now time.Time) *PolicyStore {
	return &PolicyStore{
		Id:        storeId,
		Name:      name,
		Author:    author,
		Status:    StatusActive,
		Version:   "1",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Tags returns the store's tag set in display order.
func (s *PolicyStore) Tags() []string {
	out := make([]string, len(s.tags))
	copy(out, s.tags)
	return out
}

// SetTags replaces the store's tags, de-duplicating by value while
// preserving the first-seen order, and bumps UpdatedAt.
func (s *PolicyStore) SetTags(tags []string, now time.Time) {
	seen := make(map[string]struct{}, len(tags))
	deduped := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		deduped = append(deduped, t)
	}
	s.tags = deduped
	s.touch(now)
}

// IdentitySources returns the ordered list of identity source ids bound to
// this store.
func (s *PolicyStore) IdentitySources() []id.IdentitySourceId {
	out := make([]id.IdentitySourceId, len(s.identitySources))
	copy(out, s.identitySources)
	return out
}

// DefaultIdentitySourceId returns the store's default identity source. If
// none has been explicitly set, it falls back to the first attached identity
// source; it returns false only when the store has no identity sources at
// all.
func (s *PolicyStore) DefaultIdentitySourceId() (id.IdentitySourceId, bool) {
	if s.defaultIdentitySourceId != nil {
		return *s.defaultIdentitySourceId, true
	}
	if len(s.identitySources) == 0 {
		return "", false
	}
	return s.identitySources[0], true
}

// ExplicitDefaultIdentitySourceId returns the store's default identity
// source exactly as stored, without falling back to the first attached
// identity source. Repositories persist this value, not
// DefaultIdentitySourceId's derived fallback, so an unset default stays
// unset across save/load instead of becoming sticky.
func (s *PolicyStore) ExplicitDefaultIdentitySourceId() (id.IdentitySourceId, bool) {
	if s.defaultIdentitySourceId == nil {
		return "", false
	}
	return *s.defaultIdentitySourceId, true
}

// AddIdentitySource appends an identity source id to the store's list.
func (s *PolicyStore) AddIdentitySource(src id.IdentitySourceId, now time.Time) {
	if slices.Contains(s.identitySources, src) {
		return
	}
	s.identitySources = append(s.identitySources, src)
	s.touch(now)
}

// RemoveIdentitySource removes an identity source id from the store's list
// and clears it as the default if it was the default.
func (s *PolicyStore) RemoveIdentitySource(src id.IdentitySourceId, now time.Time) {
	s.identitySources = slices.DeleteFunc(s.identitySources, func(v id.IdentitySourceId) bool {
		return v == src
	})
	if s.defaultIdentitySourceId != nil && *s.defaultIdentitySourceId == src {
		s.defaultIdentitySourceId = nil
	}
	s.touch(now)
}

// SetDefaultIdentitySource sets the store's default identity source. The id
// must already be present in the store's identity source list.
func (s *PolicyStore) SetDefaultIdentitySource(src id.IdentitySourceId, now time.Time) error {
	if !slices.Contains(s.identitySources, src) {
		return fmt.Errorf("%w: %s", ErrDefaultIdentitySourceNotListed, src)
	}
	s.defaultIdentitySourceId = &src
	s.touch(now)
	return nil
}

func (s *PolicyStore) touch(now time.Time) {
	if now.After(s.UpdatedAt) {
		s.UpdatedAt = now
		return
	}
	// Guarantee monotonicity even if the caller supplies a non-increasing
	// clock reading.
	s.UpdatedAt = s.UpdatedAt.Add(time.Nanosecond)
}
