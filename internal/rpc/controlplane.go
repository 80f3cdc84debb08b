package rpc

import (
	"context"

	"github.com/wso2/policy-authz/internal/controlplane"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/repository"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

// ControlPlaneServer implements pb.ControlPlaneServer by converting between
// wire messages and the controlplane.Service use-case surface.
type ControlPlaneServer struct {
	svc *controlplane.Service
}

// NewControlPlaneServer wraps svc for gRPC dispatch.
func NewControlPlaneServer(svc *controlplane.Service) *ControlPlaneServer {
	return &ControlPlaneServer{svc: svc}
}

func toPage(token string, size int32) repository.Page {
	return repository.Page{Token: token, PageSize: int(size)}
}

func storeId(raw string) (id.PolicyStoreId, error) { return id.NewPolicyStoreId(raw) }

// --- Policy store ---

func (s *ControlPlaneServer) CreatePolicyStore(ctx context.Context, req *pb.CreatePolicyStoreRequest) (*pb.CreatePolicyStoreResponse, error) {
	store, err := s.svc.CreatePolicyStore(ctx, controlplane.CreatePolicyStoreParams{
		Id: req.Id, Name: req.Name, Description: req.Description, Author: req.Author, Actor: req.Actor,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.CreatePolicyStoreResponse{Store: fromPolicyStore(store)}, nil
}

func (s *ControlPlaneServer) GetPolicyStore(ctx context.Context, req *pb.GetPolicyStoreRequest) (*pb.GetPolicyStoreResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	store, err := s.svc.GetPolicyStore(ctx, sid)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetPolicyStoreResponse{Store: fromPolicyStore(store)}, nil
}

func (s *ControlPlaneServer) ListPolicyStores(ctx context.Context, req *pb.ListPolicyStoresRequest) (*pb.ListPolicyStoresResponse, error) {
	stores, page, err := s.svc.ListPolicyStores(ctx, toPage(req.PageToken, req.PageSize))
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]*pb.PolicyStore, len(stores))
	for i, st := range stores {
		out[i] = fromPolicyStore(st)
	}
	return &pb.ListPolicyStoresResponse{Stores: out, NextPageToken: page.NextToken}, nil
}

func (s *ControlPlaneServer) DeletePolicyStore(ctx context.Context, req *pb.DeletePolicyStoreRequest) (*pb.DeletePolicyStoreResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.DeletePolicyStore(ctx, sid, req.Actor); err != nil {
		return nil, toStatus(err)
	}
	return &pb.DeletePolicyStoreResponse{}, nil
}

func (s *ControlPlaneServer) UpdatePolicyStoreTags(ctx context.Context, req *pb.UpdatePolicyStoreTagsRequest) (*pb.UpdatePolicyStoreTagsResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	store, err := s.svc.UpdatePolicyStoreTags(ctx, sid, req.Tags, req.Actor)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.UpdatePolicyStoreTagsResponse{Store: fromPolicyStore(store)}, nil
}

// --- Schema ---

func (s *ControlPlaneServer) PutSchema(ctx context.Context, req *pb.PutSchemaRequest) (*pb.PutSchemaResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	schema, err := s.svc.PutSchema(ctx, sid, []byte(req.Schema), req.Actor)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.PutSchemaResponse{Schema: string(schema.Raw)}, nil
}

func (s *ControlPlaneServer) GetSchema(ctx context.Context, req *pb.GetSchemaRequest) (*pb.GetSchemaResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	schema, err := s.svc.GetSchema(ctx, sid)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetSchemaResponse{Schema: string(schema.Raw)}, nil
}

// --- Policy ---

func (s *ControlPlaneServer) CreatePolicy(ctx context.Context, req *pb.CreatePolicyRequest) (*pb.CreatePolicyResponse, error) {
	policy, err := s.svc.CreatePolicy(ctx, controlplane.CreatePolicyParams{
		StoreId: req.PolicyStoreId, Id: req.Id, Statement: req.Statement, Description: req.Description, Actor: req.Actor,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.CreatePolicyResponse{Policy: fromPolicy(policy)}, nil
}

func (s *ControlPlaneServer) GetPolicy(ctx context.Context, req *pb.GetPolicyRequest) (*pb.GetPolicyResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	pid, err := id.NewPolicyId(req.PolicyId)
	if err != nil {
		return nil, toStatus(err)
	}
	policy, err := s.svc.GetPolicy(ctx, sid, pid)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetPolicyResponse{Policy: fromPolicy(policy)}, nil
}

func (s *ControlPlaneServer) ListPolicies(ctx context.Context, req *pb.ListPoliciesRequest) (*pb.ListPoliciesResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	policies, page, err := s.svc.ListPolicies(ctx, sid, toPage(req.PageToken, req.PageSize))
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]*pb.Policy, len(policies))
	for i, p := range policies {
		out[i] = fromPolicy(p)
	}
	return &pb.ListPoliciesResponse{Policies: out, NextPageToken: page.NextToken}, nil
}

func (s *ControlPlaneServer) UpdatePolicy(ctx context.Context, req *pb.UpdatePolicyRequest) (*pb.UpdatePolicyResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	existing, err := s.svc.GetPolicy(ctx, sid, id.PolicyId(req.PolicyId))
	if err != nil {
		return nil, toStatus(err)
	}
	existing.Statement = req.Statement
	existing.Description = req.Description
	if err := s.svc.UpdatePolicy(ctx, existing, req.Actor); err != nil {
		return nil, toStatus(err)
	}
	return &pb.UpdatePolicyResponse{Policy: fromPolicy(existing)}, nil
}

func (s *ControlPlaneServer) DeletePolicy(ctx context.Context, req *pb.DeletePolicyRequest) (*pb.DeletePolicyResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.DeletePolicy(ctx, sid, id.PolicyId(req.PolicyId), req.Actor); err != nil {
		return nil, toStatus(err)
	}
	return &pb.DeletePolicyResponse{}, nil
}

// --- Policy template ---

func (s *ControlPlaneServer) CreatePolicyTemplate(ctx context.Context, req *pb.CreatePolicyTemplateRequest) (*pb.CreatePolicyTemplateResponse, error) {
	tmpl, err := s.svc.CreatePolicyTemplate(ctx, controlplane.CreatePolicyTemplateParams{
		StoreId: req.PolicyStoreId, Id: req.Id, Statement: req.Statement, Description: req.Description, Actor: req.Actor,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.CreatePolicyTemplateResponse{Template: fromTemplate(tmpl)}, nil
}

func (s *ControlPlaneServer) GetPolicyTemplate(ctx context.Context, req *pb.GetPolicyTemplateRequest) (*pb.GetPolicyTemplateResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	tmpl, err := s.svc.GetPolicyTemplate(ctx, sid, id.TemplateId(req.TemplateId))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetPolicyTemplateResponse{Template: fromTemplate(tmpl)}, nil
}

func (s *ControlPlaneServer) ListPolicyTemplates(ctx context.Context, req *pb.ListPolicyTemplatesRequest) (*pb.ListPolicyTemplatesResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	templates, page, err := s.svc.ListPolicyTemplates(ctx, sid, toPage(req.PageToken, req.PageSize))
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]*pb.PolicyTemplate, len(templates))
	for i, t := range templates {
		out[i] = fromTemplate(t)
	}
	return &pb.ListPolicyTemplatesResponse{Templates: out, NextPageToken: page.NextToken}, nil
}

func (s *ControlPlaneServer) DeletePolicyTemplate(ctx context.Context, req *pb.DeletePolicyTemplateRequest) (*pb.DeletePolicyTemplateResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.DeletePolicyTemplate(ctx, sid, id.TemplateId(req.TemplateId), req.Actor); err != nil {
		return nil, toStatus(err)
	}
	return &pb.DeletePolicyTemplateResponse{}, nil
}

// --- Identity source ---

func (s *ControlPlaneServer) CreateIdentitySource(ctx context.Context, req *pb.CreateIdentitySourceRequest) (*pb.CreateIdentitySourceResponse, error) {
	src, err := s.svc.CreateIdentitySource(ctx, controlplane.CreateIdentitySourceParams{
		StoreId: req.PolicyStoreId, Id: req.Id, Source: toIdentitySource(req), Actor: req.Actor,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.CreateIdentitySourceResponse{Source: fromIdentitySource(src)}, nil
}

func (s *ControlPlaneServer) GetIdentitySource(ctx context.Context, req *pb.GetIdentitySourceRequest) (*pb.GetIdentitySourceResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	src, err := s.svc.GetIdentitySource(ctx, sid, id.IdentitySourceId(req.IdentitySourceId))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetIdentitySourceResponse{Source: fromIdentitySource(src)}, nil
}

func (s *ControlPlaneServer) ListIdentitySources(ctx context.Context, req *pb.ListIdentitySourcesRequest) (*pb.ListIdentitySourcesResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	sources, page, err := s.svc.ListIdentitySources(ctx, sid, toPage(req.PageToken, req.PageSize))
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]*pb.IdentitySource, len(sources))
	for i, src := range sources {
		out[i] = fromIdentitySource(src)
	}
	return &pb.ListIdentitySourcesResponse{Sources: out, NextPageToken: page.NextToken}, nil
}

func (s *ControlPlaneServer) DeleteIdentitySource(ctx context.Context, req *pb.DeleteIdentitySourceRequest) (*pb.DeleteIdentitySourceResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.DeleteIdentitySource(ctx, sid, id.IdentitySourceId(req.IdentitySourceId), req.Actor); err != nil {
		return nil, toStatus(err)
	}
	return &pb.DeleteIdentitySourceResponse{}, nil
}

// --- Snapshot ---

func (s *ControlPlaneServer) CreateSnapshot(ctx context.Context, req *pb.CreateSnapshotRequest) (*pb.CreateSnapshotResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	snap, err := s.svc.CreateSnapshot(ctx, sid, req.Description, req.Actor)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.CreateSnapshotResponse{Snapshot: fromSnapshot(snap)}, nil
}

func (s *ControlPlaneServer) ListSnapshots(ctx context.Context, req *pb.ListSnapshotsRequest) (*pb.ListSnapshotsResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	snapshots, page, err := s.svc.ListSnapshots(ctx, sid, toPage(req.PageToken, req.PageSize))
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]*pb.Snapshot, len(snapshots))
	for i, snap := range snapshots {
		out[i] = fromSnapshot(snap)
	}
	return &pb.ListSnapshotsResponse{Snapshots: out, NextPageToken: page.NextToken}, nil
}

func (s *ControlPlaneServer) RollbackToSnapshot(ctx context.Context, req *pb.RollbackToSnapshotRequest) (*pb.RollbackToSnapshotResponse, error) {
	sid, err := storeId(req.PolicyStoreId)
	if err != nil {
		return nil, toStatus(err)
	}
	result, err := s.svc.RollbackToSnapshot(ctx, sid, id.SnapshotId(req.SnapshotId), req.Actor)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.RollbackToSnapshotResponse{PolicyCount: int32(result.PolicyCount), HasSchema: result.HasSchema}, nil
}
