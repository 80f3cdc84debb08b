package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/id"
)

// PutSchema is idempotent: it replaces whatever schema a store previously
// had, or inserts the first one.
func (s *SqlStore) PutSchema(ctx context.Context, schema *authzmodel.Schema) error {
	query := `
		INSERT INTO schemas (store_id, raw_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (store_id) DO UPDATE SET raw_json = excluded.raw_json, updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), schema.StoreId, string(schema.Raw), time.Now())
	if err != nil {
		return fmt.Errorf("%w: put schema: %v", domainerr.ErrRepository, err)
	}
	return nil
}

func (s *SqlStore) GetSchema(ctx context.Context, storeId id.PolicyStoreId) (*authzmodel.Schema, error) {
	var rawJSON string
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT raw_json FROM schemas WHERE store_id = ?`), storeId.String()).Scan(&rawJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: store %s has no schema", domainerr.ErrSchemaNotFound, storeId)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get schema: %v", domainerr.ErrRepository, err)
	}
	return &authzmodel.Schema{StoreId: storeId.String(), Raw: []byte(rawJSON)}, nil
}
