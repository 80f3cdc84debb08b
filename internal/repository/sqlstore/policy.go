package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/repository"
)

func (s *SqlStore) CreatePolicy(ctx context.Context, policy *authzmodel.Policy) error {
	var templateId, principalType, principalId, resourceType, resourceId sql.NullString
	if policy.Template != nil {
		templateId = sql.NullString{String: policy.Template.TemplateId, Valid: true}
		if policy.Template.PrincipalBinding != nil {
			principalType = sql.NullString{String: policy.Template.PrincipalBinding.EntityType, Valid: true}
			principalId = sql.NullString{String: policy.Template.PrincipalBinding.EntityId, Valid: true}
		}
		if policy.Template.ResourceBinding != nil {
			resourceType = sql.NullString{String: policy.Template.ResourceBinding.EntityType, Valid: true}
			resourceId = sql.NullString{String: policy.Template.ResourceBinding.EntityId, Valid: true}
		}
	}

	query := `
		INSERT INTO policies (store_id, id, statement, description, template_id, template_principal_type, template_principal_id, template_resource_type, template_resource_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query),
		policy.StoreId, policy.Id, policy.Statement, policy.Description,
		templateId, principalType, principalId, resourceType, resourceId,
		policy.CreatedAt, policy.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", domainerr.ErrDuplicatePolicyId, policy.StoreId, policy.Id)
		}
		return fmt.Errorf("%w: create policy: %v", domainerr.ErrRepository, err)
	}
	return nil
}

func (s *SqlStore) GetPolicy(ctx context.Context, storeId id.PolicyStoreId, policyId id.PolicyId) (*authzmodel.Policy, error) {
	query := `
		SELECT store_id, id, statement, description, template_id, template_principal_type, template_principal_id, template_resource_type, template_resource_id, created_at, updated_at
		FROM policies WHERE store_id = ? AND id = ?
	`
	row := s.db.QueryRowContext(ctx, s.db.Rebind(query), storeId.String(), policyId.String())
	policy, err := scanPolicy(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", domainerr.ErrPolicyNotFound, storeId, policyId)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get policy: %v", domainerr.ErrRepository, err)
	}
	return policy, nil
}

func (s *SqlStore) ListPolicies(ctx context.Context, storeId id.PolicyStoreId, page repository.Page) ([]*authzmodel.Policy, repository.PageResult, error) {
	offset, limit := offsetPage(page)
	query := `
		SELECT store_id, id, statement, description, template_id, template_principal_type, template_principal_id, template_resource_type, template_resource_id, created_at, updated_at
		FROM policies WHERE store_id = ? ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), storeId.String(), limit, offset)
	if err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list policies: %v", domainerr.ErrRepository, err)
	}
	defer rows.Close()

	var out []*authzmodel.Policy
	for rows.Next() {
		policy, err := scanPolicy(rows.Scan)
		if err != nil {
			return nil, repository.PageResult{}, fmt.Errorf("%w: scan policy: %v", domainerr.ErrRepository, err)
		}
		out = append(out, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list policies: %v", domainerr.ErrRepository, err)
	}
	return out, repository.PageResult{NextToken: nextOffsetToken(offset, limit, len(out))}, nil
}

func (s *SqlStore) UpdatePolicy(ctx context.Context, policy *authzmodel.Policy) error {
	policy.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE policies SET statement = ?, description = ?, updated_at = ? WHERE store_id = ? AND id = ?`),
		policy.Statement, policy.Description, policy.UpdatedAt, policy.StoreId, policy.Id)
	if err != nil {
		return fmt.Errorf("%w: update policy: %v", domainerr.ErrRepository, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update policy: %v", domainerr.ErrRepository, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", domainerr.ErrPolicyNotFound, policy.StoreId, policy.Id)
	}
	return nil
}

func (s *SqlStore) DeletePolicy(ctx context.Context, storeId id.PolicyStoreId, policyId id.PolicyId) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM policies WHERE store_id = ? AND id = ?`), storeId.String(), policyId.String())
	if err != nil {
		return fmt.Errorf("%w: delete policy: %v", domainerr.ErrRepository, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete policy: %v", domainerr.ErrRepository, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", domainerr.ErrPolicyNotFound, storeId, policyId)
	}
	return nil
}

func scanPolicy(scan scanFunc) (*authzmodel.Policy, error) {
	var (
		storeId, policyId, statement, description                      string
		templateId, principalType, principalId, resourceType, resourceId sql.NullString
		createdAt, updatedAt                                            time.Time
	)
	if err := scan(&storeId, &policyId, &statement, &description, &templateId, &principalType, &principalId, &resourceType, &resourceId, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	policy := &authzmodel.Policy{
		StoreId:     storeId,
		Id:          policyId,
		Statement:   statement,
		Description: description,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	if templateId.Valid {
		link := &authzmodel.TemplateLink{TemplateId: templateId.String}
		if principalType.Valid {
			link.PrincipalBinding = &authzmodel.EntityIdentifier{EntityType: principalType.String, EntityId: principalId.String}
		}
		if resourceType.Valid {
			link.ResourceBinding = &authzmodel.EntityIdentifier{EntityType: resourceType.String, EntityId: resourceId.String}
		}
		policy.Template = link
	}
	return policy, nil
}

// isUniqueViolation reports whether err is a primary-key/unique constraint
// violation: go-sqlite3 errors by their extended code, lib/pq errors by
// message.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	// lib/pq reports constraint violations as *pq.Error with SQLSTATE 23505;
	// a message match covers it without pulling in a second driver-specific
	// error type just for this one check.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key value")
}
