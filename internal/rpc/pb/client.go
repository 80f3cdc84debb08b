package pb

import (
	"context"

	"google.golang.org/grpc"
)

// ControlPlaneClient is a hand-written stub over ControlPlaneServiceDesc,
// playing the role protoc-gen-go-grpc's generated client would. It only
// exposes the methods the edge-cache agent actually calls; a fuller client
// can grow the same way if another caller needs more of the surface.
type ControlPlaneClient struct {
	cc grpc.ClientConnInterface
}

// NewControlPlaneClient wraps an established connection (e.g. from
// grpc.NewClient) for calling the control plane's RPCs.
func NewControlPlaneClient(cc grpc.ClientConnInterface) *ControlPlaneClient {
	return &ControlPlaneClient{cc: cc}
}

func (c *ControlPlaneClient) GetPolicyStore(ctx context.Context, req *GetPolicyStoreRequest) (*GetPolicyStoreResponse, error) {
	out := new(GetPolicyStoreResponse)
	if err := c.cc.Invoke(ctx, "/policyauthz.ControlPlane/GetPolicyStore", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlPlaneClient) ListPolicies(ctx context.Context, req *ListPoliciesRequest) (*ListPoliciesResponse, error) {
	out := new(ListPoliciesResponse)
	if err := c.cc.Invoke(ctx, "/policyauthz.ControlPlane/ListPolicies", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlPlaneClient) GetSchema(ctx context.Context, req *GetSchemaRequest) (*GetSchemaResponse, error) {
	out := new(GetSchemaResponse)
	if err := c.cc.Invoke(ctx, "/policyauthz.ControlPlane/GetSchema", req, out); err != nil {
		return nil, err
	}
	return out, nil
}
