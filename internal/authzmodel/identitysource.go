package authzmodel

import (
	"errors"
	"fmt"
	"time"
)

// IdentitySourceKind discriminates between the two supported issuer shapes.
type IdentitySourceKind string

const (
	KindCognito IdentitySourceKind = "cognito"
	KindOIDC    IdentitySourceKind = "oidc"
)

// IdentitySourceConfig binds a store to a JWT issuer.
type IdentitySourceConfig struct {
	IssuerURL        string
	AcceptedClientIds []string
	JWKSUri          string
	GroupClaimPath   string

	// PrincipalEntityType is the entity type assigned to the principal
	// constructed from a validated token's subject claim, e.g. "User".
	// Defaults to "User" when empty.
	PrincipalEntityType string
}

// DefaultPrincipalEntityType is used when an identity source doesn't
// specify one.
const DefaultPrincipalEntityType = "User"

// ResolvedPrincipalEntityType returns Config.PrincipalEntityType, or
// DefaultPrincipalEntityType when unset.
func (s *IdentitySource) ResolvedPrincipalEntityType() string {
	if s.Config.PrincipalEntityType == "" {
		return DefaultPrincipalEntityType
	}
	return s.Config.PrincipalEntityType
}

// AttributeMapping maps a claim path to an attribute name, with a chain of
// value transforms applied before the value is stored on the principal
// entity.
type AttributeMapping struct {
	ClaimPath     string
	AttributeName string
	Transforms    []TransformSpec
}

// TransformSpec is the serializable form of a ValueTransform.
// Exactly one of the fields should be meaningfully populated, selected by
// Kind.
type TransformSpec struct {
	Kind string // "none" | "split_last" | "regex_capture" | "regex_replace" | "prefix" | "suffix" | "lowercase" | "uppercase" | "trim" | "chain"

	Sep         string // SplitLast
	Pattern     string // RegexCapture / RegexReplace
	Group       int    // RegexCapture
	Replacement string // RegexReplace
	Literal     string // Prefix / Suffix

	Chain []TransformSpec // Chain
}

// ClaimsMapping configures how a validated JWT's claims become a principal
// entity plus parent group entities.
type ClaimsMapping struct {
	PrincipalIdClaimPath string // default "sub"
	PrincipalIdTransforms []TransformSpec
	GroupClaimPath       string
	GroupEntityType      string // default depends on Kind: UserGroup (cognito) / RealmRole (oidc)
	AttributeMappings    []AttributeMapping
}

// IdentitySource binds a store to a JWT issuer.
type IdentitySource struct {
	StoreId     string
	Id          string
	Kind        IdentitySourceKind
	Config      IdentitySourceConfig
	Claims      *ClaimsMapping
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	ErrIssuerEmpty       = errors.New("identity source: issuer URL must not be empty")
	ErrNoAcceptedClients = errors.New("identity source: at least one accepted client id is required")
)

// Validate checks that the issuer is usable before the source is persisted.
func (s *IdentitySource) Validate() error {
	if s.Config.IssuerURL == "" {
		return ErrIssuerEmpty
	}
	if len(s.Config.AcceptedClientIds) == 0 {
		return ErrNoAcceptedClients
	}
	return nil
}

// DefaultGroupEntityType returns the default parent-entity type used for
// resolved groups when the claims mapping doesn't override it.
func (s *IdentitySource) DefaultGroupEntityType() string {
	if s.Kind == KindCognito {
		return "UserGroup"
	}
	return "RealmRole"
}

func (s *IdentitySource) String() string {
	return fmt.Sprintf("IdentitySource{%s/%s issuer=%s}", s.StoreId, s.Id, s.Config.IssuerURL)
}
