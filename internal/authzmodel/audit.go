package authzmodel

import "time"

// EventType enumerates the audit event variants
type EventType string

const (
	EventPolicyStoreCreated     EventType = "PolicyStoreCreated"
	EventPolicyStoreUpdated     EventType = "PolicyStoreUpdated"
	EventPolicyStoreTagsUpdated EventType = "PolicyStoreTagsUpdated"
	EventPolicyStoreDeleted     EventType = "PolicyStoreDeleted"
	EventApiCalled              EventType = "ApiCalled"
	EventApiCompleted           EventType = "ApiCompleted"
	EventPolicyStoreAccessed    EventType = "PolicyStoreAccessed"
	EventAuthorizationPerformed EventType = "AuthorizationPerformed"

	EventSchemaUpdated          EventType = "SchemaUpdated"
	EventPolicyCreated          EventType = "PolicyCreated"
	EventPolicyUpdated          EventType = "PolicyUpdated"
	EventPolicyDeleted          EventType = "PolicyDeleted"
	EventPolicyTemplateCreated  EventType = "PolicyTemplateCreated"
	EventPolicyTemplateDeleted  EventType = "PolicyTemplateDeleted"
	EventIdentitySourceCreated  EventType = "IdentitySourceCreated"
	EventIdentitySourceDeleted  EventType = "IdentitySourceDeleted"
	EventSnapshotCreated        EventType = "SnapshotCreated"
	EventSnapshotRolledBack     EventType = "SnapshotRolledBack"
)

// AccessKind is the access mode recorded by a PolicyStoreAccessed event.
type AccessKind string

const (
	AccessRead   AccessKind = "read"
	AccessWrite  AccessKind = "write"
	AccessDelete AccessKind = "delete"
)

// AuthorizationPerformedDetail is the payload of an AuthorizationPerformed
// event.
type AuthorizationPerformedDetail struct {
	Principal           EntityIdentifier
	Action              EntityIdentifier
	Resource            EntityIdentifier
	Decision            Decision
	DeterminingPolicyIds []string
}

// ApiCallDetail is the payload shared by ApiCalled/ApiCompleted events.
type ApiCallDetail struct {
	Operation  string
	LatencyMs  float64
	StatusCode string
}

// Event is a single append-only audit record. At most one of
// the *Detail fields is populated, selected by Type; control-plane events
// such as PolicyStoreCreated carry none.
type Event struct {
	EventId     string
	Type        EventType
	AggregateId string
	OccurredAt  time.Time
	Version     int

	// Actor is advisory metadata stamped from a caller-supplied field on
	// control-plane mutations; its authenticity is not verified by this
	// package.
	Actor string

	AccessKind AccessKind
	ApiCall    *ApiCallDetail
	Authz      *AuthorizationPerformedDetail
}
