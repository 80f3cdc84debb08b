package rpc

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/wso2/policy-authz/internal/audit"
	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

// genericAggregateId is the audit aggregate used for calls whose request
// doesn't carry a policy_store_id (e.g. ValidatePolicy against an ad-hoc
// schema, or a control-plane list call scoped to no single store).
const genericAggregateId = "global"

// AuditInterceptor emits an ApiCalled event before dispatch and an
// ApiCompleted event after, on every RPC across both planes. Domain-specific
// events (PolicyStoreCreated, AuthorizationPerformed, ...) are emitted by
// the use-case service layers themselves; this interceptor only supplies
// the generic per-call instrumentation pair.
func AuditInterceptor(bus *audit.Bus, log *zap.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if bus == nil {
			return handler(ctx, req)
		}

		operation := path.Base(info.FullMethod)
		aggregateId := genericAggregateId
		if scoped, ok := req.(pb.StoreScoped); ok {
			if id := scoped.GetPolicyStoreId(); id != "" {
				aggregateId = id
			}
		}

		publish(ctx, bus, log, authzmodel.EventApiCalled, aggregateId, authzmodel.ApiCallDetail{Operation: operation})

		start := time.Now()
		resp, err := handler(ctx, req)
		latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

		statusCode := "OK"
		if st, ok := status.FromError(err); ok && err != nil {
			statusCode = st.Code().String()
		}
		publish(ctx, bus, log, authzmodel.EventApiCompleted, aggregateId, authzmodel.ApiCallDetail{
			Operation: operation, LatencyMs: latencyMs, StatusCode: statusCode,
		})

		return resp, err
	}
}

func publish(ctx context.Context, bus *audit.Bus, log *zap.Logger, eventType authzmodel.EventType, aggregateId string, detail authzmodel.ApiCallDetail) {
	event := authzmodel.Event{
		EventId:     uuid.NewString(),
		Type:        eventType,
		AggregateId: aggregateId,
		ApiCall:     &detail,
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := bus.Publish(detached, event); err != nil {
			log.Warn("failed to publish api call event", zap.String("operation", detail.Operation), zap.Error(err))
		}
	}()
}
