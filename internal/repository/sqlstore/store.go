// Package sqlstore implements the repository.Store port against
// database/sql, supporting sqlite3 and postgres through the same
// method-per-query style and driver-parameterized placeholder rebinding.
package sqlstore

import (
	"strconv"

	"github.com/wso2/policy-authz/internal/repository"
)

const defaultPageSize = 50

// SqlStore implements repository.Store.
type SqlStore struct {
	db *DB
}

// New wraps an already-connected, schema-initialized DB as a repository.Store.
func New(db *DB) *SqlStore {
	return &SqlStore{db: db}
}

var _ repository.Store = (*SqlStore)(nil)

// offsetPage decodes a Page's opaque token as a plain offset and clamps the
// page size to a sane default. The token format is an implementation detail
// callers must not depend on.
func offsetPage(page repository.Page) (offset, limit int) {
	limit = page.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}
	if page.Token == "" {
		return 0, limit
	}
	n, err := strconv.Atoi(page.Token)
	if err != nil || n < 0 {
		return 0, limit
	}
	return n, limit
}

// nextOffsetToken returns the token for the page after one that started at
// offset and returned rowCount rows, or "" if that page was the last one.
func nextOffsetToken(offset, limit, rowCount int) string {
	if rowCount < limit {
		return ""
	}
	return strconv.Itoa(offset + rowCount)
}
