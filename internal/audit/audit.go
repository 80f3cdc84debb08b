// Package audit is the in-process event bus that turns a domain mutation
// into an append-only audit record and, optionally, a signed webhook
// delivery. Delivery is at-least-once and never blocks or rolls back the
// originating operation: publish failures are logged and swallowed, per
// the caller.
package audit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/repository"
)

// maxPublishAttempts bounds the optimistic-concurrency retry loop in
// Publish; a conflict means a concurrent writer claimed the version this
// call was about to use, so the only remedy is to re-read and retry.
const maxPublishAttempts = 5

// VersionSource is the slice of repository.Store the bus needs to append
// an event to an aggregate's audit log under optimistic concurrency.
type VersionSource interface {
	CurrentAuditVersion(ctx context.Context, aggregateId string) (int, error)
	AppendAuditEvents(ctx context.Context, aggregateId string, expectedVersion int, events []authzmodel.Event) error
}

// Bus publishes domain events to the repository and fans them out to any
// webhook subscribers registered for the event's type.
type Bus struct {
	store       VersionSource
	log         *zap.Logger
	subscribers []*Subscriber
}

// New constructs a Bus backed by a repository.Store.
func New(store repository.Store, log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{store: store, log: log}
}

// Subscribe registers a webhook subscriber for one or more event types.
// Subscribe is not safe to call concurrently with Publish; register all
// subscribers during startup.
func (b *Bus) Subscribe(sub *Subscriber) {
	b.subscribers = append(b.subscribers, sub)
}

// Publish appends event to its aggregate's audit log at the next available
// version and, on success, delivers it to every matching webhook subscriber
// without waiting for delivery to complete. The version is resolved and
// retried internally: a conflict with a concurrent writer is invisible to
// the caller unless every attempt is exhausted. A repository append
// failure is returned to the caller (it signals the mutation itself could
// not be recorded); a webhook delivery failure is only logged.
func (b *Bus) Publish(ctx context.Context, event authzmodel.Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	var err error
	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		var current int
		current, err = b.store.CurrentAuditVersion(ctx, event.AggregateId)
		if err != nil {
			return err
		}
		event.Version = current + 1
		err = b.store.AppendAuditEvents(ctx, event.AggregateId, current, []authzmodel.Event{event})
		if err == nil {
			break
		}
		if !errors.Is(err, domainerr.ErrVersionConflict) {
			return err
		}
	}
	if err != nil {
		return err
	}

	for _, sub := range b.subscribers {
		if !sub.handles(event.Type) {
			continue
		}
		sub := sub
		go func() {
			if err := sub.deliver(context.Background(), event); err != nil {
				b.log.Warn("webhook delivery failed",
					zap.String("subscriber", sub.name),
					zap.String("eventId", event.EventId),
					zap.Error(err))
			}
		}()
	}
	return nil
}
