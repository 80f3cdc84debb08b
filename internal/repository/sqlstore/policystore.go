package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/repository"
)

func (s *SqlStore) CreatePolicyStore(ctx context.Context, store *authzmodel.PolicyStore) error {
	tagsJSON, err := json.Marshal(store.Tags())
	if err != nil {
		return fmt.Errorf("%w: marshal tags: %v", domainerr.ErrRepository, err)
	}
	sources := store.IdentitySources()
	sourceIds := make([]string, len(sources))
	for i, src := range sources {
		sourceIds[i] = src.String()
	}
	sourcesJSON, err := json.Marshal(sourceIds)
	if err != nil {
		return fmt.Errorf("%w: marshal identity sources: %v", domainerr.ErrRepository, err)
	}
	var defaultId *string
	if d, ok := store.ExplicitDefaultIdentitySourceId(); ok {
		v := d.String()
		defaultId = &v
	}

	query := `
		INSERT INTO policy_stores (id, name, description, status, version, author, tags, identity_sources, default_identity_source_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, s.db.Rebind(query),
		store.Id.String(), store.Name, store.Description, string(store.Status), store.Version, store.Author,
		string(tagsJSON), string(sourcesJSON), defaultId, store.CreatedAt, store.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: create policy store: %v", domainerr.ErrRepository, err)
	}
	return nil
}

func (s *SqlStore) GetPolicyStore(ctx context.Context, storeId id.PolicyStoreId) (*authzmodel.PolicyStore, error) {
	query := `
		SELECT id, name, description, status, version, author, tags, identity_sources, default_identity_source_id, created_at, updated_at
		FROM policy_stores WHERE id = ?
	`
	row := s.db.QueryRowContext(ctx, s.db.Rebind(query), storeId.String())
	store, err := scanPolicyStore(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domainerr.ErrPolicyStoreNotFound, storeId)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get policy store: %v", domainerr.ErrRepository, err)
	}
	return store, nil
}

func (s *SqlStore) ListPolicyStores(ctx context.Context, page repository.Page) ([]*authzmodel.PolicyStore, repository.PageResult, error) {
	offset, limit := offsetPage(page)
	query := `
		SELECT id, name, description, status, version, author, tags, identity_sources, default_identity_source_id, created_at, updated_at
		FROM policy_stores ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), limit, offset)
	if err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list policy stores: %v", domainerr.ErrRepository, err)
	}
	defer rows.Close()

	var out []*authzmodel.PolicyStore
	for rows.Next() {
		store, err := scanPolicyStore(rows.Scan)
		if err != nil {
			return nil, repository.PageResult{}, fmt.Errorf("%w: scan policy store: %v", domainerr.ErrRepository, err)
		}
		out = append(out, store)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list policy stores: %v", domainerr.ErrRepository, err)
	}
	return out, repository.PageResult{NextToken: nextOffsetToken(offset, limit, len(out))}, nil
}

func (s *SqlStore) UpdatePolicyStore(ctx context.Context, store *authzmodel.PolicyStore) error {
	tagsJSON, err := json.Marshal(store.Tags())
	if err != nil {
		return fmt.Errorf("%w: marshal tags: %v", domainerr.ErrRepository, err)
	}
	sources := store.IdentitySources()
	sourceIds := make([]string, len(sources))
	for i, src := range sources {
		sourceIds[i] = src.String()
	}
	sourcesJSON, err := json.Marshal(sourceIds)
	if err != nil {
		return fmt.Errorf("%w: marshal identity sources: %v", domainerr.ErrRepository, err)
	}
	var defaultId *string
	if d, ok := store.ExplicitDefaultIdentitySourceId(); ok {
		v := d.String()
		defaultId = &v
	}

	query := `
		UPDATE policy_stores
		SET name = ?, description = ?, status = ?, version = ?, author = ?, tags = ?, identity_sources = ?, default_identity_source_id = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query),
		store.Name, store.Description, string(store.Status), store.Version, store.Author,
		string(tagsJSON), string(sourcesJSON), defaultId, store.UpdatedAt, store.Id.String())
	if err != nil {
		return fmt.Errorf("%w: update policy store: %v", domainerr.ErrRepository, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update policy store: %v", domainerr.ErrRepository, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domainerr.ErrPolicyStoreNotFound, store.Id)
	}
	return nil
}

// DeletePolicyStore relies on ON DELETE CASCADE to remove every dependent
// schema/policy/template/identity-source/snapshot row atomically.
func (s *SqlStore) DeletePolicyStore(ctx context.Context, storeId id.PolicyStoreId) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM policy_stores WHERE id = ?`), storeId.String())
	if err != nil {
		return fmt.Errorf("%w: delete policy store: %v", domainerr.ErrRepository, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete policy store: %v", domainerr.ErrRepository, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domainerr.ErrPolicyStoreNotFound, storeId)
	}
	return nil
}

type scanFunc func(dest ...any) error

func scanPolicyStore(scan scanFunc) (*authzmodel.PolicyStore, error) {
	var (
		storeIdRaw, name, description, status, version, author string
		tagsJSON, sourcesJSON                                    string
		defaultId                                                sql.NullString
		createdAt, updatedAt                                     time.Time
	)
	if err := scan(&storeIdRaw, &name, &description, &status, &version, &author, &tagsJSON, &sourcesJSON, &defaultId, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	storeId, err := id.NewPolicyStoreId(storeIdRaw)
	if err != nil {
		return nil, err
	}
	store := authzmodel.NewPolicyStore(storeId, name, author, createdAt)
	store.Description = description
	store.Status = authzmodel.Status(status)
	store.Version = version

	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	store.SetTags(tags, updatedAt)

	var sourceIds []string
	if err := json.Unmarshal([]byte(sourcesJSON), &sourceIds); err != nil {
		return nil, fmt.Errorf("unmarshal identity sources: %w", err)
	}
	for _, raw := range sourceIds {
		srcId, err := id.NewIdentitySourceId(raw)
		if err != nil {
			return nil, err
		}
		store.AddIdentitySource(srcId, updatedAt)
	}
	if defaultId.Valid && defaultId.String != "" {
		srcId, err := id.NewIdentitySourceId(defaultId.String)
		if err != nil {
			return nil, err
		}
		if err := store.SetDefaultIdentitySource(srcId, updatedAt); err != nil {
			return nil, err
		}
	}

	// SetTags/AddIdentitySource/SetDefaultIdentitySource each touch
	// UpdatedAt; the stored timestamps are authoritative.
	store.CreatedAt = createdAt
	store.UpdatedAt = updatedAt
	return store, nil
}
