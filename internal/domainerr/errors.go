// Package domainerr holds the sentinel errors shared across the authorization
// core, grouped by the aggregate or stage that raises them. The mapping from
// these sentinels to gRPC codes lives in internal/rpc/status.go; the edge
// agent's server in internal/agent is the one other package that returns
// gRPC codes directly.
package domainerr

import "errors"

// Policy store aggregate errors.
var (
	ErrPolicyStoreNotFound = errors.New("policy store not found")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// Policy aggregate errors.
var (
	ErrPolicyNotFound      = errors.New("policy not found")
	ErrDuplicatePolicyId   = errors.New("policy id already exists in store")
	ErrInvalidPolicySyntax = errors.New("invalid policy syntax")
)

// Template aggregate errors.
var (
	ErrTemplateNotFound    = errors.New("policy template not found")
	ErrInvalidTemplate     = errors.New("template statement must reference ?principal or ?resource")
	ErrTemplateInUse       = errors.New("template is referenced by one or more policies")
	ErrTemplateUnbound     = errors.New("template placeholder is not fully bound")
)

// Schema aggregate errors.
var (
	ErrSchemaNotFound          = errors.New("schema not found")
	ErrSchemaValidationFailed  = errors.New("schema validation failed")
	ErrSchemaMalformed         = errors.New("schema is not well-formed JSON")
)

// Identity source aggregate errors.
var (
	ErrIdentitySourceNotFound = errors.New("identity source not found")
)

// Snapshot aggregate errors.
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Audit / event store errors.
var (
	ErrVersionConflict = errors.New("aggregate version conflict")
)

// Token validation errors (JWT validator).
var (
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenFormatInvalid   = errors.New("invalid token format")
	ErrSignatureInvalid     = errors.New("invalid token signature")
	ErrAlgorithmNotAllowed  = errors.New("token signing algorithm not allowed")
	ErrTokenExpired         = errors.New("token has expired")
	ErrIssuerMismatch       = errors.New("token issuer does not match identity source")
	ErrAudienceMismatch     = errors.New("token audience does not match identity source")
)

// JWKS errors.
var (
	ErrUnknownIssuer     = errors.New("unknown issuer")
	ErrUnknownKid        = errors.New("unknown key id")
	ErrJwksUnavailable   = errors.New("jwks unavailable")
	ErrKeyFetchFailure   = errors.New("jwks key fetch failed")
)

// Cache / compilation errors.
var ErrCompilationError = errors.New("policy store has one or more policies that fail to compile")

// Evaluator errors.
var (
	ErrInvalidEntityReference = errors.New("invalid entity reference")
	ErrEntityCycle            = errors.New("entity parent graph contains a cycle")
)

// Repository / backend errors.
var ErrRepository = errors.New("repository error")

// Value-transform errors.
var ErrTransformNoMatch = errors.New("value transform: no match")

// Agent errors.
var ErrAgentNotSynced = errors.New("agent has not completed its first control-plane sync")
