package pb

import (
	"context"

	"google.golang.org/grpc"
)

// DataPlaneServer is the server-side contract for the data-plane service:
// every authorization decision operation exposed to callers.
type DataPlaneServer interface {
	IsAuthorized(ctx context.Context, req *IsAuthorizedRequest) (*IsAuthorizedResponse, error)
	IsAuthorizedWithToken(ctx context.Context, req *IsAuthorizedWithTokenRequest) (*IsAuthorizedResponse, error)
	BatchIsAuthorized(ctx context.Context, req *BatchIsAuthorizedRequest) (*BatchIsAuthorizedResponse, error)
	ValidatePolicy(ctx context.Context, req *ValidatePolicyRequest) (*ValidatePolicyResponse, error)
	TestAuthorization(ctx context.Context, req *TestAuthorizationRequest) (*TestAuthorizationResponse, error)
}

// ControlPlaneServer is the server-side contract for the control-plane
// service: every policy-artifact CRUD and lifecycle operation.
type ControlPlaneServer interface {
	CreatePolicyStore(ctx context.Context, req *CreatePolicyStoreRequest) (*CreatePolicyStoreResponse, error)
	GetPolicyStore(ctx context.Context, req *GetPolicyStoreRequest) (*GetPolicyStoreResponse, error)
	ListPolicyStores(ctx context.Context, req *ListPolicyStoresRequest) (*ListPolicyStoresResponse, error)
	DeletePolicyStore(ctx context.Context, req *DeletePolicyStoreRequest) (*DeletePolicyStoreResponse, error)
	UpdatePolicyStoreTags(ctx context.Context, req *UpdatePolicyStoreTagsRequest) (*UpdatePolicyStoreTagsResponse, error)

	PutSchema(ctx context.Context, req *PutSchemaRequest) (*PutSchemaResponse, error)
	GetSchema(ctx context.Context, req *GetSchemaRequest) (*GetSchemaResponse, error)

	CreatePolicy(ctx context.Context, req *CreatePolicyRequest) (*CreatePolicyResponse, error)
	GetPolicy(ctx context.Context, req *GetPolicyRequest) (*GetPolicyResponse, error)
	ListPolicies(ctx context.Context, req *ListPoliciesRequest) (*ListPoliciesResponse, error)
	UpdatePolicy(ctx context.Context, req *UpdatePolicyRequest) (*UpdatePolicyResponse, error)
	DeletePolicy(ctx context.Context, req *DeletePolicyRequest) (*DeletePolicyResponse, error)

	CreatePolicyTemplate(ctx context.Context, req *CreatePolicyTemplateRequest) (*CreatePolicyTemplateResponse, error)
	GetPolicyTemplate(ctx context.Context, req *GetPolicyTemplateRequest) (*GetPolicyTemplateResponse, error)
	ListPolicyTemplates(ctx context.Context, req *ListPolicyTemplatesRequest) (*ListPolicyTemplatesResponse, error)
	DeletePolicyTemplate(ctx context.Context, req *DeletePolicyTemplateRequest) (*DeletePolicyTemplateResponse, error)

	CreateIdentitySource(ctx context.Context, req *CreateIdentitySourceRequest) (*CreateIdentitySourceResponse, error)
	GetIdentitySource(ctx context.Context, req *GetIdentitySourceRequest) (*GetIdentitySourceResponse, error)
	ListIdentitySources(ctx context.Context, req *ListIdentitySourcesRequest) (*ListIdentitySourcesResponse, error)
	DeleteIdentitySource(ctx context.Context, req *DeleteIdentitySourceRequest) (*DeleteIdentitySourceResponse, error)

	CreateSnapshot(ctx context.Context, req *CreateSnapshotRequest) (*CreateSnapshotResponse, error)
	ListSnapshots(ctx context.Context, req *ListSnapshotsRequest) (*ListSnapshotsResponse, error)
	RollbackToSnapshot(ctx context.Context, req *RollbackToSnapshotRequest) (*RollbackToSnapshotResponse, error)
}

func unaryHandler[Req any, Resp any](method func(ctx context.Context, req *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(ctx, in)
		}
		fullMethod, _ := grpc.Method(ctx)
		info := &grpc.UnaryServerInfo{Server: method, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// DataPlaneServiceDesc is the grpc.ServiceDesc for the data-plane service,
// built by hand in the same shape protoc-gen-go-grpc produces.
var DataPlaneServiceDesc = grpc.ServiceDesc{
	ServiceName: "policyauthz.DataPlane",
	HandlerType: (*DataPlaneServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IsAuthorized", Handler: dataPlaneIsAuthorized},
		{MethodName: "IsAuthorizedWithToken", Handler: dataPlaneIsAuthorizedWithToken},
		{MethodName: "BatchIsAuthorized", Handler: dataPlaneBatchIsAuthorized},
		{MethodName: "ValidatePolicy", Handler: dataPlaneValidatePolicy},
		{MethodName: "TestAuthorization", Handler: dataPlaneTestAuthorization},
	},
	Metadata: "policy_authz.proto",
}

func dataPlaneIsAuthorized(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(DataPlaneServer).IsAuthorized)(srv, ctx, dec, interceptor)
}

func dataPlaneIsAuthorizedWithToken(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(DataPlaneServer).IsAuthorizedWithToken)(srv, ctx, dec, interceptor)
}

func dataPlaneBatchIsAuthorized(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(DataPlaneServer).BatchIsAuthorized)(srv, ctx, dec, interceptor)
}

func dataPlaneValidatePolicy(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(DataPlaneServer).ValidatePolicy)(srv, ctx, dec, interceptor)
}

func dataPlaneTestAuthorization(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(DataPlaneServer).TestAuthorization)(srv, ctx, dec, interceptor)
}

// RegisterDataPlaneServer registers srv on s.
func RegisterDataPlaneServer(s grpc.ServiceRegistrar, srv DataPlaneServer) {
	s.RegisterService(&DataPlaneServiceDesc, srv)
}

// ControlPlaneServiceDesc is the grpc.ServiceDesc for the control-plane
// service.
var ControlPlaneServiceDesc = grpc.ServiceDesc{
	ServiceName: "policyauthz.ControlPlane",
	HandlerType: (*ControlPlaneServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreatePolicyStore", Handler: controlPlaneCreatePolicyStore},
		{MethodName: "GetPolicyStore", Handler: controlPlaneGetPolicyStore},
		{MethodName: "ListPolicyStores", Handler: controlPlaneListPolicyStores},
		{MethodName: "DeletePolicyStore", Handler: controlPlaneDeletePolicyStore},
		{MethodName: "UpdatePolicyStoreTags", Handler: controlPlaneUpdatePolicyStoreTags},
		{MethodName: "PutSchema", Handler: controlPlanePutSchema},
		{MethodName: "GetSchema", Handler: controlPlaneGetSchema},
		{MethodName: "CreatePolicy", Handler: controlPlaneCreatePolicy},
		{MethodName: "GetPolicy", Handler: controlPlaneGetPolicy},
		{MethodName: "ListPolicies", Handler: controlPlaneListPolicies},
		{MethodName: "UpdatePolicy", Handler: controlPlaneUpdatePolicy},
		{MethodName: "DeletePolicy", Handler: controlPlaneDeletePolicy},
		{MethodName: "CreatePolicyTemplate", Handler: controlPlaneCreatePolicyTemplate},
		{MethodName: "GetPolicyTemplate", Handler: controlPlaneGetPolicyTemplate},
		{MethodName: "ListPolicyTemplates", Handler: controlPlaneListPolicyTemplates},
		{MethodName: "DeletePolicyTemplate", Handler: controlPlaneDeletePolicyTemplate},
		{MethodName: "CreateIdentitySource", Handler: controlPlaneCreateIdentitySource},
		{MethodName: "GetIdentitySource", Handler: controlPlaneGetIdentitySource},
		{MethodName: "ListIdentitySources", Handler: controlPlaneListIdentitySources},
		{MethodName: "DeleteIdentitySource", Handler: controlPlaneDeleteIdentitySource},
		{MethodName: "CreateSnapshot", Handler: controlPlaneCreateSnapshot},
		{MethodName: "ListSnapshots", Handler: controlPlaneListSnapshots},
		{MethodName: "RollbackToSnapshot", Handler: controlPlaneRollbackToSnapshot},
	},
	Metadata: "policy_authz.proto",
}

func controlPlaneCreatePolicyStore(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).CreatePolicyStore)(srv, ctx, dec, interceptor)
}

func controlPlaneGetPolicyStore(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).GetPolicyStore)(srv, ctx, dec, interceptor)
}

func controlPlaneListPolicyStores(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).ListPolicyStores)(srv, ctx, dec, interceptor)
}

func controlPlaneDeletePolicyStore(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).DeletePolicyStore)(srv, ctx, dec, interceptor)
}

func controlPlaneUpdatePolicyStoreTags(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).UpdatePolicyStoreTags)(srv, ctx, dec, interceptor)
}

func controlPlanePutSchema(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).PutSchema)(srv, ctx, dec, interceptor)
}

func controlPlaneGetSchema(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).GetSchema)(srv, ctx, dec, interceptor)
}

func controlPlaneCreatePolicy(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).CreatePolicy)(srv, ctx, dec, interceptor)
}

func controlPlaneGetPolicy(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).GetPolicy)(srv, ctx, dec, interceptor)
}

func controlPlaneListPolicies(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).ListPolicies)(srv, ctx, dec, interceptor)
}

func controlPlaneUpdatePolicy(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).UpdatePolicy)(srv, ctx, dec, interceptor)
}

func controlPlaneDeletePolicy(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).DeletePolicy)(srv, ctx, dec, interceptor)
}

func controlPlaneCreatePolicyTemplate(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).CreatePolicyTemplate)(srv, ctx, dec, interceptor)
}

func controlPlaneGetPolicyTemplate(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).GetPolicyTemplate)(srv, ctx, dec, interceptor)
}

func controlPlaneListPolicyTemplates(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).ListPolicyTemplates)(srv, ctx, dec, interceptor)
}

func controlPlaneDeletePolicyTemplate(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).DeletePolicyTemplate)(srv, ctx, dec, interceptor)
}

func controlPlaneCreateIdentitySource(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).CreateIdentitySource)(srv, ctx, dec, interceptor)
}

func controlPlaneGetIdentitySource(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).GetIdentitySource)(srv, ctx, dec, interceptor)
}

func controlPlaneListIdentitySources(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).ListIdentitySources)(srv, ctx, dec, interceptor)
}

func controlPlaneDeleteIdentitySource(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).DeleteIdentitySource)(srv, ctx, dec, interceptor)
}

func controlPlaneCreateSnapshot(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).CreateSnapshot)(srv, ctx, dec, interceptor)
}

func controlPlaneListSnapshots(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).ListSnapshots)(srv, ctx, dec, interceptor)
}

func controlPlaneRollbackToSnapshot(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(srv.(ControlPlaneServer).RollbackToSnapshot)(srv, ctx, dec, interceptor)
}

// RegisterControlPlaneServer registers srv on s.
func RegisterControlPlaneServer(s grpc.ServiceRegistrar, srv ControlPlaneServer) {
	s.RegisterService(&ControlPlaneServiceDesc, srv)
}
