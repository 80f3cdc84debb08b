package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/evaluator"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

// Server implements pb.DataPlaneServer against a single Agent's locally
// cached policy set. Only IsAuthorized is served for real; the rest of the
// data-plane surface (batch evaluation, policy authoring helpers) belongs
// to the control-plane-backed service, not the edge cache, so those
// methods return Unimplemented.
type Server struct {
	agent *Agent
}

// NewServer wraps agent for gRPC dispatch as pb.DataPlaneServer.
func NewServer(agent *Agent) *Server {
	return &Server{agent: agent}
}

func (s *Server) IsAuthorized(ctx context.Context, req *pb.IsAuthorizedRequest) (*pb.IsAuthorizedResponse, error) {
	cctx, err := toContext(req.Context)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	entities, err := toEntityMap(req.Entities)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.agent.IsAuthorized(evaluator.Request{
		Principal: toEntityIdentifier(req.Principal),
		Action:    toEntityIdentifier(req.Action),
		Resource:  toEntityIdentifier(req.Resource),
		Context:   cctx,
		Entities:  entities,
	})
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	decision, determining, evalErrs := fromResult(result)
	return &pb.IsAuthorizedResponse{Decision: decision, DeterminingPolicies: determining, Errors: evalErrs}, nil
}

func (s *Server) IsAuthorizedWithToken(context.Context, *pb.IsAuthorizedWithTokenRequest) (*pb.IsAuthorizedResponse, error) {
	return nil, status.Error(codes.Unimplemented, "edge agent does not validate tokens; call the control plane directly")
}

func (s *Server) BatchIsAuthorized(context.Context, *pb.BatchIsAuthorizedRequest) (*pb.BatchIsAuthorizedResponse, error) {
	return nil, status.Error(codes.Unimplemented, "edge agent does not serve batch evaluation")
}

func (s *Server) ValidatePolicy(context.Context, *pb.ValidatePolicyRequest) (*pb.ValidatePolicyResponse, error) {
	return nil, status.Error(codes.Unimplemented, "edge agent does not serve policy authoring")
}

func (s *Server) TestAuthorization(context.Context, *pb.TestAuthorizationRequest) (*pb.TestAuthorizationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "edge agent does not serve policy authoring")
}

func toEntityIdentifier(w pb.EntityIdentifier) authzmodel.EntityIdentifier {
	return authzmodel.EntityIdentifier{EntityType: w.EntityType, EntityId: w.EntityId}
}

func toContext(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return out, nil
}

func toEntityMap(entities []pb.Entity) (map[authzmodel.EntityIdentifier]*authzmodel.Entity, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	out := make(map[authzmodel.EntityIdentifier]*authzmodel.Entity, len(entities))
	for _, e := range entities {
		attrs := make(map[string]any, len(e.Attributes))
		for k, v := range e.Attributes {
			var decoded any
			if err := json.Unmarshal([]byte(v), &decoded); err != nil {
				return nil, fmt.Errorf("decode attribute %q: %w", k, err)
			}
			attrs[k] = decoded
		}
		parents := make([]authzmodel.EntityIdentifier, len(e.Parents))
		for i, p := range e.Parents {
			parents[i] = toEntityIdentifier(p)
		}
		identifier := toEntityIdentifier(e.Identifier)
		out[identifier] = &authzmodel.Entity{Identifier: identifier, Attributes: attrs, Parents: parents}
	}
	return out, nil
}

func fromDecision(d authzmodel.Decision) pb.Decision {
	if d == authzmodel.Allow {
		return pb.Decision_ALLOW
	}
	return pb.Decision_DENY
}

func fromResult(r *evaluator.Result) (pb.Decision, []string, []string) {
	errs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = fmt.Sprintf("%s: %v", e.PolicyId, e.Err)
	}
	return fromDecision(r.Decision), r.DeterminingPolicyIds, errs
}
