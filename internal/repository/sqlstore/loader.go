package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/id"
)

// LoadPolicySet satisfies cache.PolicySetLoader: it loads every policy
// statement for a store plus its parsed schema (if any). A store that does
// not exist yields ErrPolicyStoreNotFound rather than an empty set.
func (s *SqlStore) LoadPolicySet(ctx context.Context, storeId id.PolicyStoreId) (map[string]string, *authzmodel.ParsedSchema, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT 1 FROM policy_stores WHERE id = ?`), storeId.String()).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil, fmt.Errorf("%w: %s", domainerr.ErrPolicyStoreNotFound, storeId)
	case err != nil:
		return nil, nil, fmt.Errorf("%w: load policy set: %v", domainerr.ErrRepository, err)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(`SELECT id, statement FROM policies WHERE store_id = ?`), storeId.String())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load policy set: %v", domainerr.ErrRepository, err)
	}
	statements := map[string]string{}
	for rows.Next() {
		var policyId, statement string
		if err := rows.Scan(&policyId, &statement); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("%w: scan policy set row: %v", domainerr.ErrRepository, err)
		}
		statements[policyId] = statement
	}
	rowsErr := rows.Err()
	rows.Close()
	if rowsErr != nil {
		return nil, nil, fmt.Errorf("%w: load policy set: %v", domainerr.ErrRepository, rowsErr)
	}

	var rawJSON string
	err = s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT raw_json FROM schemas WHERE store_id = ?`), storeId.String()).Scan(&rawJSON)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return statements, nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("%w: load schema for policy set: %v", domainerr.ErrRepository, err)
	}

	schema, err := authzmodel.ParseSchema([]byte(rawJSON))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse stored schema: %v", domainerr.ErrRepository, err)
	}
	return statements, schema, nil
}
