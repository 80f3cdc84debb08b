package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/repository"
)

func (s *SqlStore) CreateTemplate(ctx context.Context, tmpl *authzmodel.PolicyTemplate) error {
	query := `
		INSERT INTO policy_templates (store_id, id, statement, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), tmpl.StoreId, tmpl.Id, tmpl.Statement, tmpl.Description, tmpl.CreatedAt, tmpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: create template: %v", domainerr.ErrRepository, err)
	}
	return nil
}

func (s *SqlStore) GetTemplate(ctx context.Context, storeId id.PolicyStoreId, templateId id.TemplateId) (*authzmodel.PolicyTemplate, error) {
	query := `
		SELECT store_id, id, statement, description, created_at, updated_at
		FROM policy_templates WHERE store_id = ? AND id = ?
	`
	tmpl := &authzmodel.PolicyTemplate{}
	err := s.db.QueryRowContext(ctx, s.db.Rebind(query), storeId.String(), templateId.String()).
		Scan(&tmpl.StoreId, &tmpl.Id, &tmpl.Statement, &tmpl.Description, &tmpl.CreatedAt, &tmpl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", domainerr.ErrTemplateNotFound, storeId, templateId)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get template: %v", domainerr.ErrRepository, err)
	}
	return tmpl, nil
}

func (s *SqlStore) ListTemplates(ctx context.Context, storeId id.PolicyStoreId, page repository.Page) ([]*authzmodel.PolicyTemplate, repository.PageResult, error) {
	offset, limit := offsetPage(page)
	query := `
		SELECT store_id, id, statement, description, created_at, updated_at
		FROM policy_templates WHERE store_id = ? ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), storeId.String(), limit, offset)
	if err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list templates: %v", domainerr.ErrRepository, err)
	}
	defer rows.Close()

	var out []*authzmodel.PolicyTemplate
	for rows.Next() {
		tmpl := &authzmodel.PolicyTemplate{}
		if err := rows.Scan(&tmpl.StoreId, &tmpl.Id, &tmpl.Statement, &tmpl.Description, &tmpl.CreatedAt, &tmpl.UpdatedAt); err != nil {
			return nil, repository.PageResult{}, fmt.Errorf("%w: scan template: %v", domainerr.ErrRepository, err)
		}
		out = append(out, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list templates: %v", domainerr.ErrRepository, err)
	}
	return out, repository.PageResult{NextToken: nextOffsetToken(offset, limit, len(out))}, nil
}

// DeleteTemplate refuses to remove a template that any policy still links
// to; the caller must detach or delete those policies first.
func (s *SqlStore) DeleteTemplate(ctx context.Context, storeId id.PolicyStoreId, templateId id.TemplateId) error {
	var inUseCount int
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT COUNT(*) FROM policies WHERE store_id = ? AND template_id = ?`),
		storeId.String(), templateId.String()).Scan(&inUseCount)
	if err != nil {
		return fmt.Errorf("%w: check template usage: %v", domainerr.ErrRepository, err)
	}
	if inUseCount > 0 {
		return fmt.Errorf("%w: %s/%s is referenced by %d polic(y/ies)", domainerr.ErrTemplateInUse, storeId, templateId, inUseCount)
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM policy_templates WHERE store_id = ? AND id = ?`), storeId.String(), templateId.String())
	if err != nil {
		return fmt.Errorf("%w: delete template: %v", domainerr.ErrRepository, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete template: %v", domainerr.ErrRepository, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", domainerr.ErrTemplateNotFound, storeId, templateId)
	}
	return nil
}
