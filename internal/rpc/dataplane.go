package rpc

import (
	"context"

	"github.com/wso2/policy-authz/internal/authz"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

// DataPlaneServer implements pb.DataPlaneServer by converting between wire
// messages and the authz.Service use-case surface. It holds no state of its
// own beyond the service it wraps.
type DataPlaneServer struct {
	svc *authz.Service
}

// NewDataPlaneServer wraps svc for gRPC dispatch.
func NewDataPlaneServer(svc *authz.Service) *DataPlaneServer {
	return &DataPlaneServer{svc: svc}
}

func (s *DataPlaneServer) IsAuthorized(ctx context.Context, req *pb.IsAuthorizedRequest) (*pb.IsAuthorizedResponse, error) {
	storeId, err := id.NewPolicyStoreId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	cctx, err := toContext(req.Context)
	if err != nil {
		return nil, toStatus(err)
	}
	entities, err := toEntityMap(req.Entities)
	if err != nil {
		return nil, toStatus(err)
	}

	result, err := s.svc.IsAuthorized(ctx, authz.Request{
		StoreId:   storeId,
		Principal: toEntityIdentifier(req.Principal),
		Action:    toEntityIdentifier(req.Action),
		Resource:  toEntityIdentifier(req.Resource),
		Context:   cctx,
		Entities:  entities,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	decision, determining, errs := fromResult(result)
	return &pb.IsAuthorizedResponse{Decision: decision, DeterminingPolicies: determining, Errors: errs}, nil
}

func (s *DataPlaneServer) IsAuthorizedWithToken(ctx context.Context, req *pb.IsAuthorizedWithTokenRequest) (*pb.IsAuthorizedResponse, error) {
	storeId, err := id.NewPolicyStoreId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	sourceId, err := id.NewIdentitySourceId(req.IdentitySourceId)
	if err != nil {
		return nil, toStatus(err)
	}
	cctx, err := toContext(req.Context)
	if err != nil {
		return nil, toStatus(err)
	}
	entities, err := toEntityMap(req.Entities)
	if err != nil {
		return nil, toStatus(err)
	}

	result, err := s.svc.IsAuthorizedWithToken(ctx, authz.TokenRequest{
		StoreId:          storeId,
		IdentitySourceId: sourceId,
		AccessToken:      req.AccessToken,
		Action:            toEntityIdentifier(req.Action),
		Resource:          toEntityIdentifier(req.Resource),
		Context:           cctx,
		Entities:          entities,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	decision, determining, errs := fromResult(result)
	return &pb.IsAuthorizedResponse{Decision: decision, DeterminingPolicies: determining, Errors: errs}, nil
}

func (s *DataPlaneServer) BatchIsAuthorized(ctx context.Context, req *pb.BatchIsAuthorizedRequest) (*pb.BatchIsAuthorizedResponse, error) {
	storeId, err := id.NewPolicyStoreId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]authz.Request, len(req.Items))
	for i, it := range req.Items {
		cctx, err := toContext(it.Context)
		if err != nil {
			return nil, toStatus(err)
		}
		entities, err := toEntityMap(it.Entities)
		if err != nil {
			return nil, toStatus(err)
		}
		items[i] = authz.Request{
			StoreId:   storeId,
			Principal: toEntityIdentifier(it.Principal),
			Action:    toEntityIdentifier(it.Action),
			Resource:  toEntityIdentifier(it.Resource),
			Context:   cctx,
			Entities:  entities,
		}
	}

	results, err := s.svc.BatchIsAuthorized(ctx, storeId, items)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]pb.BatchIsAuthorizedResult, len(results))
	for i, r := range results {
		if r.Err != nil {
			out[i] = pb.BatchIsAuthorizedResult{Decision: pb.Decision_DENY, Errors: []string{r.Err.Error()}}
			continue
		}
		decision, determining, errs := fromResult(r.Result)
		out[i] = pb.BatchIsAuthorizedResult{Decision: decision, DeterminingPolicies: determining, Errors: errs}
	}
	return &pb.BatchIsAuthorizedResponse{Results: out}, nil
}

func (s *DataPlaneServer) ValidatePolicy(ctx context.Context, req *pb.ValidatePolicyRequest) (*pb.ValidatePolicyResponse, error) {
	schema, err := parseSchemaOrNil(req.Schema)
	if err != nil {
		return nil, toStatus(err)
	}
	diag := s.svc.ValidatePolicy(req.Statement, schema)
	return &pb.ValidatePolicyResponse{Diagnostic: fromDiagnostic(diag)}, nil
}

func (s *DataPlaneServer) TestAuthorization(ctx context.Context, req *pb.TestAuthorizationRequest) (*pb.TestAuthorizationResponse, error) {
	schema, err := parseSchemaOrNil(req.Schema)
	if err != nil {
		return nil, toStatus(err)
	}
	cctx, err := toContext(req.Context)
	if err != nil {
		return nil, toStatus(err)
	}
	entities, err := toEntityMap(req.Entities)
	if err != nil {
		return nil, toStatus(err)
	}

	result, diagnostics, err := s.svc.TestAuthorization(req.Statements, schema, authz.Request{
		Principal: toEntityIdentifier(req.Principal),
		Action:    toEntityIdentifier(req.Action),
		Resource:  toEntityIdentifier(req.Resource),
		Context:   cctx,
		Entities:  entities,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	decision, determining, errs := fromResult(result)
	return &pb.TestAuthorizationResponse{
		Decision:            decision,
		DeterminingPolicies: determining,
		Errors:              errs,
		Diagnostics:         fromDiagnosticMap(diagnostics),
	}, nil
}
