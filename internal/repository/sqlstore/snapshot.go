package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/repository"
)

// CreateSnapshot reads a store's current policies and schema inside one
// transaction, so the capture is a single consistent point in time even
// while other writers are mutating the store.
func (s *SqlStore) CreateSnapshot(ctx context.Context, storeId id.PolicyStoreId, description string) (*authzmodel.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: false})
	if err != nil {
		return nil, fmt.Errorf("%w: begin snapshot transaction: %v", domainerr.ErrRepository, err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, s.db.Rebind(`SELECT id, statement, description FROM policies WHERE store_id = ? ORDER BY id ASC`), storeId.String())
	if err != nil {
		return nil, fmt.Errorf("%w: read policies for snapshot: %v", domainerr.ErrRepository, err)
	}
	var policies []authzmodel.SnapshotPolicy
	for rows.Next() {
		var p authzmodel.SnapshotPolicy
		if err := rows.Scan(&p.Id, &p.Statement, &p.Description); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan policy for snapshot: %v", domainerr.ErrRepository, err)
		}
		policies = append(policies, p)
	}
	rowsErr := rows.Err()
	rows.Close()
	if rowsErr != nil {
		return nil, fmt.Errorf("%w: read policies for snapshot: %v", domainerr.ErrRepository, rowsErr)
	}

	var schemaRaw json.RawMessage
	var rawJSON string
	err = tx.QueryRowContext(ctx, s.db.Rebind(`SELECT raw_json FROM schemas WHERE store_id = ?`), storeId.String()).Scan(&rawJSON)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No schema yet; snapshot still succeeds with HasSchema=false.
	case err != nil:
		return nil, fmt.Errorf("%w: read schema for snapshot: %v", domainerr.ErrRepository, err)
	default:
		schemaRaw = json.RawMessage(rawJSON)
	}

	snapshot := authzmodel.NewSnapshot(uuid.NewString(), storeId.String(), description, policies, schemaRaw, time.Now())

	policiesJSON, err := json.Marshal(snapshot.Policies)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal snapshot policies: %v", domainerr.ErrRepository, err)
	}
	var schemaJSON sql.NullString
	if snapshot.HasSchema {
		schemaJSON = sql.NullString{String: string(snapshot.Schema), Valid: true}
	}

	insertQuery := `
		INSERT INTO snapshots (id, store_id, description, policies_json, schema_json, has_schema, policy_count, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, s.db.Rebind(insertQuery), snapshot.Id, snapshot.StoreId, snapshot.Description,
		string(policiesJSON), schemaJSON, snapshot.HasSchema, snapshot.PolicyCount, snapshot.SizeBytes, snapshot.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert snapshot: %v", domainerr.ErrRepository, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit snapshot transaction: %v", domainerr.ErrRepository, err)
	}
	return snapshot, nil
}

func (s *SqlStore) GetSnapshot(ctx context.Context, storeId id.PolicyStoreId, snapshotId id.SnapshotId) (*authzmodel.Snapshot, error) {
	query := `
		SELECT id, store_id, description, policies_json, schema_json, has_schema, policy_count, size_bytes, created_at
		FROM snapshots WHERE store_id = ? AND id = ?
	`
	snapshot, err := scanSnapshot(s.db.QueryRowContext(ctx, s.db.Rebind(query), storeId.String(), snapshotId.String()).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", domainerr.ErrSnapshotNotFound, storeId, snapshotId)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get snapshot: %v", domainerr.ErrRepository, err)
	}
	return snapshot, nil
}

func (s *SqlStore) ListSnapshots(ctx context.Context, storeId id.PolicyStoreId, page repository.Page) ([]*authzmodel.Snapshot, repository.PageResult, error) {
	offset, limit := offsetPage(page)
	query := `
		SELECT id, store_id, description, policies_json, schema_json, has_schema, policy_count, size_bytes, created_at
		FROM snapshots WHERE store_id = ? ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), storeId.String(), limit, offset)
	if err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list snapshots: %v", domainerr.ErrRepository, err)
	}
	defer rows.Close()

	var out []*authzmodel.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, repository.PageResult{}, fmt.Errorf("%w: scan snapshot: %v", domainerr.ErrRepository, err)
		}
		out = append(out, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list snapshots: %v", domainerr.ErrRepository, err)
	}
	return out, repository.PageResult{NextToken: nextOffsetToken(offset, limit, len(out))}, nil
}

// RollbackSnapshot atomically replaces a store's current policies and
// schema with the snapshot's captured content.
func (s *SqlStore) RollbackSnapshot(ctx context.Context, storeId id.PolicyStoreId, snapshotId id.SnapshotId) (repository.RollbackResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.RollbackResult{}, fmt.Errorf("%w: begin rollback transaction: %v", domainerr.ErrRepository, err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, store_id, description, policies_json, schema_json, has_schema, policy_count, size_bytes, created_at
		FROM snapshots WHERE store_id = ? AND id = ?
	`
	snapshot, err := scanSnapshot(tx.QueryRowContext(ctx, s.db.Rebind(query), storeId.String(), snapshotId.String()).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.RollbackResult{}, fmt.Errorf("%w: %s/%s", domainerr.ErrSnapshotNotFound, storeId, snapshotId)
	}
	if err != nil {
		return repository.RollbackResult{}, fmt.Errorf("%w: read snapshot for rollback: %v", domainerr.ErrRepository, err)
	}

	if _, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM policies WHERE store_id = ?`), storeId.String()); err != nil {
		return repository.RollbackResult{}, fmt.Errorf("%w: clear policies for rollback: %v", domainerr.ErrRepository, err)
	}
	now := time.Now()
	for _, p := range snapshot.Policies {
		insertQuery := `INSERT INTO policies (store_id, id, statement, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, s.db.Rebind(insertQuery), storeId.String(), p.Id, p.Statement, p.Description, now, now); err != nil {
			return repository.RollbackResult{}, fmt.Errorf("%w: restore policy %s: %v", domainerr.ErrRepository, p.Id, err)
		}
	}

	if snapshot.HasSchema {
		upsertQuery := `
			INSERT INTO schemas (store_id, raw_json, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (store_id) DO UPDATE SET raw_json = excluded.raw_json, updated_at = excluded.updated_at
		`
		if _, err := tx.ExecContext(ctx, s.db.Rebind(upsertQuery), storeId.String(), string(snapshot.Schema), now); err != nil {
			return repository.RollbackResult{}, fmt.Errorf("%w: restore schema: %v", domainerr.ErrRepository, err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM schemas WHERE store_id = ?`), storeId.String()); err != nil {
			return repository.RollbackResult{}, fmt.Errorf("%w: clear schema for rollback: %v", domainerr.ErrRepository, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return repository.RollbackResult{}, fmt.Errorf("%w: commit rollback transaction: %v", domainerr.ErrRepository, err)
	}
	return repository.RollbackResult{PolicyCount: snapshot.PolicyCount, HasSchema: snapshot.HasSchema}, nil
}

func scanSnapshot(scan scanFunc) (*authzmodel.Snapshot, error) {
	var (
		snapshotId, storeId, description, policiesJSON string
		schemaJSON                                       sql.NullString
		hasSchema                                        bool
		policyCount                                      int
		sizeBytes                                        int64
		createdAt                                        time.Time
	)
	if err := scan(&snapshotId, &storeId, &description, &policiesJSON, &schemaJSON, &hasSchema, &policyCount, &sizeBytes, &createdAt); err != nil {
		return nil, err
	}
	var policies []authzmodel.SnapshotPolicy
	if err := json.Unmarshal([]byte(policiesJSON), &policies); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot policies: %w", err)
	}
	var schemaRaw json.RawMessage
	if schemaJSON.Valid {
		schemaRaw = json.RawMessage(schemaJSON.String)
	}
	return &authzmodel.Snapshot{
		Id:          snapshotId,
		StoreId:     storeId,
		Description: description,
		Policies:    policies,
		Schema:      schemaRaw,
		HasSchema:   hasSchema,
		PolicyCount: policyCount,
		SizeBytes:   sizeBytes,
		CreatedAt:   createdAt,
	}, nil
}
