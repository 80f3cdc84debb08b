package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/repository"
)

type auditDetail struct {
	AccessKind authzmodel.AccessKind                   `json:"accessKind,omitempty"`
	ApiCall    *authzmodel.ApiCallDetail                `json:"apiCall,omitempty"`
	Authz      *authzmodel.AuthorizationPerformedDetail `json:"authz,omitempty"`
}

// CurrentAuditVersion returns the highest version already recorded for
// aggregateId, or 0 if it has no events yet.
func (s *SqlStore) CurrentAuditVersion(ctx context.Context, aggregateId string) (int, error) {
	return s.currentAuditVersion(ctx, aggregateId)
}

func (s *SqlStore) currentAuditVersion(ctx context.Context, aggregateId string) (int, error) {
	var currentVersion int
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT COALESCE(MAX(version), 0) FROM audit_events WHERE aggregate_id = ?`), aggregateId).Scan(&currentVersion)
	if err != nil {
		return 0, fmt.Errorf("%w: read current aggregate version: %v", domainerr.ErrRepository, err)
	}
	return currentVersion, nil
}

// AppendAuditEvents inserts events in one transaction, relying on the
// (aggregate_id, version) unique constraint to detect a concurrent writer:
// any events list is expected to carry consecutive Version numbers
// immediately following expectedVersion, so a constraint violation on any
// row means another writer already claimed that version.
func (s *SqlStore) AppendAuditEvents(ctx context.Context, aggregateId string, expectedVersion int, events []authzmodel.Event) error {
	if len(events) == 0 {
		return nil
	}

	currentVersion, err := s.currentAuditVersion(ctx, aggregateId)
	if err != nil {
		return err
	}
	if currentVersion != expectedVersion {
		return fmt.Errorf("%w: aggregate %s is at version %d, expected %d", domainerr.ErrVersionConflict, aggregateId, currentVersion, expectedVersion)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin audit append transaction: %v", domainerr.ErrRepository, err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO audit_events (event_id, aggregate_id, type, occurred_at, version, actor, access_kind, detail_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, ev := range events {
		detail := auditDetail{AccessKind: ev.AccessKind, ApiCall: ev.ApiCall, Authz: ev.Authz}
		detailJSON, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("%w: marshal audit detail: %v", domainerr.ErrRepository, err)
		}
		_, err = tx.ExecContext(ctx, s.db.Rebind(insertQuery),
			ev.EventId, ev.AggregateId, string(ev.Type), ev.OccurredAt, ev.Version, ev.Actor, string(ev.AccessKind), string(detailJSON))
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: version %d for aggregate %s was claimed concurrently", domainerr.ErrVersionConflict, ev.Version, aggregateId)
			}
			return fmt.Errorf("%w: insert audit event: %v", domainerr.ErrRepository, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit audit append transaction: %v", domainerr.ErrRepository, err)
	}
	return nil
}

func (s *SqlStore) ListAuditEventsByAggregate(ctx context.Context, aggregateId string, page repository.Page) ([]authzmodel.Event, repository.PageResult, error) {
	offset, limit := offsetPage(page)
	query := `
		SELECT event_id, aggregate_id, type, occurred_at, version, actor, access_kind, detail_json
		FROM audit_events WHERE aggregate_id = ? ORDER BY version ASC LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), aggregateId, limit, offset)
	if err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list audit events: %v", domainerr.ErrRepository, err)
	}
	defer rows.Close()

	var out []authzmodel.Event
	for rows.Next() {
		ev, err := scanAuditEvent(rows.Scan)
		if err != nil {
			return nil, repository.PageResult{}, fmt.Errorf("%w: scan audit event: %v", domainerr.ErrRepository, err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.PageResult{}, fmt.Errorf("%w: list audit events: %v", domainerr.ErrRepository, err)
	}
	return out, repository.PageResult{NextToken: nextOffsetToken(offset, limit, len(out))}, nil
}

func (s *SqlStore) ListAuditEventsByType(ctx context.Context, eventType authzmodel.EventType, from, to time.Time, limit int) ([]authzmodel.Event, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	query := `
		SELECT event_id, aggregate_id, type, occurred_at, version, actor, access_kind, detail_json
		FROM audit_events WHERE type = ? AND occurred_at >= ? AND occurred_at <= ? ORDER BY occurred_at DESC LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), string(eventType), from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list audit events by type: %v", domainerr.ErrRepository, err)
	}
	defer rows.Close()

	var out []authzmodel.Event
	for rows.Next() {
		ev, err := scanAuditEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scan audit event: %v", domainerr.ErrRepository, err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list audit events by type: %v", domainerr.ErrRepository, err)
	}
	return out, nil
}

func scanAuditEvent(scan scanFunc) (authzmodel.Event, error) {
	var (
		eventId, aggregateId, evType, actor, accessKind string
		occurredAt                                       time.Time
		version                                           int
		detailJSON                                        string
	)
	if err := scan(&eventId, &aggregateId, &evType, &occurredAt, &version, &actor, &accessKind, &detailJSON); err != nil {
		return authzmodel.Event{}, err
	}
	var detail auditDetail
	if err := json.Unmarshal([]byte(detailJSON), &detail); err != nil {
		return authzmodel.Event{}, fmt.Errorf("unmarshal audit detail: %w", err)
	}
	return authzmodel.Event{
		EventId:     eventId,
		Type:        authzmodel.EventType(evType),
		AggregateId: aggregateId,
		OccurredAt:  occurredAt,
		Version:     version,
		Actor:       actor,
		AccessKind:  authzmodel.AccessKind(accessKind),
		ApiCall:     detail.ApiCall,
		Authz:       detail.Authz,
	}, nil
}
