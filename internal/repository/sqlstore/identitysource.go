package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/repository"
)

func (s *SqlStore) CreateIdentitySource(ctx context.Context, src *authzmodel.IdentitySource) error {
	clientIdsJSON, err := json.Marshal(src.Config.AcceptedClientIds)
	if err != nil {
		return fmt.Errorf("%w: marshal accepted client ids: %v", domainerr.ErrRepository, err)
	}
	claimsJSON, err := marshalClaimsMapping(src.Claims)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO identity_sources (store_id, id, kind, issuer_url, accepted_client_ids, jwks_uri, group_claim_path, principal_entity_type, claims_mapping, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, s.db.Rebind(query),
		src.StoreId, src.Id, string(src.Kind), src.Config.IssuerURL, string(clientIdsJSON),
		src.Config.JWKSUri, src.Config.GroupClaimPath, src.ResolvedPrincipalEntityType(), claimsJSON, src.Description, src.CreatedAt, src.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: create identity source: %v", domainerr.ErrRepository, err)
	}
	return nil
}

func (s *SqlStore) GetIdentitySource(ctx context.Context, storeId id.PolicyStoreId, sourceId id.IdentitySourceId) (*authzmodel.IdentitySource, error) {
	query := `
		SELECT store_id, id, kind, issuer_url, accepted_client_ids, jwks_uri, group_claim_path, principal_entity_type, claims_mapping, description, created_at, updated_at
		FROM identity_sources WHERE store_id = ? AND id = ?
	`
	src, err := scanIdentitySource(s.db.QueryRowContext(ctx, s.db.Rebind(query), storeId.String(), sourceId.String()).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", domainerr.ErrIdentitySourceNotFound, storeId, sourceId)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get identity source: %v", domainerr.ErrRepository, err)
	}
	return src, nil
}

func (s *SqlStore) ListIdentitySources(ctx context.Context, storeId id.PolicyStoreId, page repository.Page) ([]*authzmodel.IdentitySource, repository.PageResult, error) {
	offset, limit := offsetPage(page)
	query := `
		SELECT store_id, id, kind, issuer_url, accepted_client_ids, jwks_uri, group_claim_path, principal_entity_type, claims_mapping, description, created_at, updated_at
		FROM identity_sources WHERE store_id = ? ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), storeId.String(), limit, offset)
	if err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list identity sources: %v", domainerr.ErrRepository, err)
	}
	defer rows.Close()

	var out []*authzmodel.IdentitySource
	for rows.Next() {
		src, err := scanIdentitySource(rows.Scan)
		if err != nil {
			return nil, repository.PageResult{}, fmt.Errorf("%w: scan identity source: %v", domainerr.ErrRepository, err)
		}
		out = append(out, src)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list identity sources: %v", domainerr.ErrRepository, err)
	}
	return out, repository.PageResult{NextToken: nextOffsetToken(offset, limit, len(out))}, nil
}

func (s *SqlStore) DeleteIdentitySource(ctx context.Context, storeId id.PolicyStoreId, sourceId id.IdentitySourceId) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM identity_sources WHERE store_id = ? AND id = ?`), storeId.String(), sourceId.String())
	if err != nil {
		return fmt.Errorf("%w: delete identity source: %v", domainerr.ErrRepository, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete identity source: %v", domainerr.ErrRepository, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", domainerr.ErrIdentitySourceNotFound, storeId, sourceId)
	}
	return nil
}

func marshalClaimsMapping(mapping *authzmodel.ClaimsMapping) (sql.NullString, error) {
	if mapping == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(mapping)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("%w: marshal claims mapping: %v", domainerr.ErrRepository, err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func scanIdentitySource(scan scanFunc) (*authzmodel.IdentitySource, error) {
	src := &authzmodel.IdentitySource{}
	var kind, clientIdsJSON string
	var claimsJSON sql.NullString
	if err := scan(&src.StoreId, &src.Id, &kind, &src.Config.IssuerURL, &clientIdsJSON,
		&src.Config.JWKSUri, &src.Config.GroupClaimPath, &src.Config.PrincipalEntityType, &claimsJSON, &src.Description, &src.CreatedAt, &src.UpdatedAt); err != nil {
		return nil, err
	}
	src.Kind = authzmodel.IdentitySourceKind(kind)
	if err := json.Unmarshal([]byte(clientIdsJSON), &src.Config.AcceptedClientIds); err != nil {
		return nil, fmt.Errorf("unmarshal accepted client ids: %w", err)
	}
	if claimsJSON.Valid {
		var mapping authzmodel.ClaimsMapping
		if err := json.Unmarshal([]byte(claimsJSON.String), &mapping); err != nil {
			return nil, fmt.Errorf("unmarshal claims mapping: %w", err)
		}
		src.Claims = &mapping
	}
	return src, nil
}
