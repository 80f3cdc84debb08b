package authzmodel

import (
	"encoding/json"
	"time"
)

// SnapshotPolicy is the immutable copy of a single policy row carried inside
// a Snapshot.
type SnapshotPolicy struct {
	Id          string
	Statement   string
	Description string
}

// Snapshot is an immutable, point-in-time capture of a store's policies and
// schema, suitable for rollback.
type Snapshot struct {
	Id          string
	StoreId     string
	Description string
	Policies    []SnapshotPolicy
	Schema      json.RawMessage
	HasSchema   bool
	PolicyCount int
	SizeBytes   int64
	CreatedAt   time.Time
}

// NewSnapshot builds a Snapshot from the current policies and schema of a
// store, computing the derived PolicyCount/SizeBytes/HasSchema fields.
func NewSnapshot(snapshotId, storeId, description string, policies []SnapshotPolicy, schema json.RawMessage, now time.Time) *Snapshot {
	size := int64(0)
	for _, p := range policies {
		size += int64(len(p.Statement)) + int64(len(p.Description))
	}
	size += int64(len(schema))
	return &Snapshot{
		Id:          snapshotId,
		StoreId:     storeId,
		Description: description,
		Policies:    policies,
		Schema:      schema,
		HasSchema:   len(schema) > 0,
		PolicyCount: len(policies),
		SizeBytes:   size,
		CreatedAt:   now,
	}
}
