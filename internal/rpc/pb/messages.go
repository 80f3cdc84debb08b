package pb

// Decision mirrors authzmodel.Decision on the wire. The numeric values are
// load-bearing: 0 = ALLOW, 1 = DENY.
type Decision int32

const (
	Decision_ALLOW Decision = 0
	Decision_DENY  Decision = 1
)

// EntityIdentifier names a single entity instance, e.g. User::"alice".
type EntityIdentifier struct {
	EntityType string `json:"entity_type"`
	EntityId   string `json:"entity_id"`
}

// Entity is a principal/resource/context entity supplied by the caller for
// one evaluation. Attributes are string-encoded JSON, not native JSON,
// matching the wire convention fixed by the external-interfaces contract.
type Entity struct {
	Identifier EntityIdentifier   `json:"identifier"`
	Attributes map[string]string  `json:"attributes,omitempty"`
	Parents    []EntityIdentifier `json:"parents,omitempty"`
}

// Diagnostic is a structured compilation failure.
type Diagnostic struct {
	Line    int32  `json:"line"`
	Column  int32  `json:"column"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// --- Data plane messages ---

type IsAuthorizedRequest struct {
	PolicyStoreId string            `json:"policy_store_id"`
	Principal     EntityIdentifier  `json:"principal"`
	Action        EntityIdentifier  `json:"action"`
	Resource      EntityIdentifier  `json:"resource"`
	Context       string            `json:"context,omitempty"`
	Entities      []Entity          `json:"entities,omitempty"`
}

func (r *IsAuthorizedRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type IsAuthorizedResponse struct {
	Decision            Decision `json:"decision"`
	DeterminingPolicies []string `json:"determining_policies,omitempty"`
	Errors              []string `json:"errors,omitempty"`
}

type IsAuthorizedWithTokenRequest struct {
	PolicyStoreId    string           `json:"policy_store_id"`
	IdentitySourceId string           `json:"identity_source_id"`
	AccessToken      string           `json:"access_token"`
	Action           EntityIdentifier `json:"action"`
	Resource         EntityIdentifier `json:"resource"`
	Context          string           `json:"context,omitempty"`
	Entities         []Entity         `json:"entities,omitempty"`
}

func (r *IsAuthorizedWithTokenRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type BatchIsAuthorizedItem struct {
	Principal EntityIdentifier `json:"principal"`
	Action    EntityIdentifier `json:"action"`
	Resource  EntityIdentifier `json:"resource"`
	Context   string           `json:"context,omitempty"`
	Entities  []Entity         `json:"entities,omitempty"`
}

type BatchIsAuthorizedRequest struct {
	PolicyStoreId string                  `json:"policy_store_id"`
	Items         []BatchIsAuthorizedItem `json:"items"`
}

func (r *BatchIsAuthorizedRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type BatchIsAuthorizedResult struct {
	Decision            Decision `json:"decision"`
	DeterminingPolicies []string `json:"determining_policies,omitempty"`
	Errors              []string `json:"errors,omitempty"`
}

type BatchIsAuthorizedResponse struct {
	Results []BatchIsAuthorizedResult `json:"results"`
}

type ValidatePolicyRequest struct {
	PolicyStoreId string `json:"policy_store_id,omitempty"`
	Statement     string `json:"statement"`
	Schema        string `json:"schema,omitempty"`
}

func (r *ValidatePolicyRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type ValidatePolicyResponse struct {
	Diagnostic *Diagnostic `json:"diagnostic,omitempty"`
}

type TestAuthorizationRequest struct {
	PolicyStoreId string            `json:"policy_store_id,omitempty"`
	Statements    map[string]string `json:"statements"`
	Schema        string            `json:"schema,omitempty"`
	Principal     EntityIdentifier  `json:"principal"`
	Action        EntityIdentifier  `json:"action"`
	Resource      EntityIdentifier  `json:"resource"`
	Context       string            `json:"context,omitempty"`
	Entities      []Entity          `json:"entities,omitempty"`
}

func (r *TestAuthorizationRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type TestAuthorizationResponse struct {
	Decision            Decision              `json:"decision"`
	DeterminingPolicies []string              `json:"determining_policies,omitempty"`
	Errors              []string              `json:"errors,omitempty"`
	Diagnostics         map[string]Diagnostic `json:"diagnostics,omitempty"`
}

// --- Control plane messages: policy store ---

type PolicyStore struct {
	Id                      string   `json:"id"`
	Name                    string   `json:"name"`
	Description             string   `json:"description,omitempty"`
	Status                  string   `json:"status"`
	Version                 string   `json:"version"`
	Author                  string   `json:"author,omitempty"`
	Tags                    []string `json:"tags,omitempty"`
	IdentitySources         []string `json:"identity_sources,omitempty"`
	DefaultIdentitySourceId string   `json:"default_identity_source_id,omitempty"`
	CreatedAt               string   `json:"created_at"`
	UpdatedAt               string   `json:"updated_at"`
}

type CreatePolicyStoreRequest struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	Actor       string `json:"actor,omitempty"`
}

func (r *CreatePolicyStoreRequest) GetPolicyStoreId() string { return r.Id }

type CreatePolicyStoreResponse struct {
	Store *PolicyStore `json:"store"`
}

type GetPolicyStoreRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
}

func (r *GetPolicyStoreRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type GetPolicyStoreResponse struct {
	Store *PolicyStore `json:"store"`
}

type ListPolicyStoresRequest struct {
	PageToken string `json:"page_token,omitempty"`
	PageSize  int32  `json:"page_size,omitempty"`
}

type ListPolicyStoresResponse struct {
	Stores        []*PolicyStore `json:"stores"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type DeletePolicyStoreRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	Actor         string `json:"actor,omitempty"`
}

func (r *DeletePolicyStoreRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type DeletePolicyStoreResponse struct{}

type UpdatePolicyStoreTagsRequest struct {
	PolicyStoreId string   `json:"policy_store_id"`
	Tags          []string `json:"tags"`
	Actor         string   `json:"actor,omitempty"`
}

func (r *UpdatePolicyStoreTagsRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type UpdatePolicyStoreTagsResponse struct {
	Store *PolicyStore `json:"store"`
}

// --- Control plane messages: schema ---

type PutSchemaRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	Schema        string `json:"schema"`
	Actor         string `json:"actor,omitempty"`
}

func (r *PutSchemaRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type PutSchemaResponse struct {
	Schema string `json:"schema"`
}

type GetSchemaRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
}

func (r *GetSchemaRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type GetSchemaResponse struct {
	Schema string `json:"schema"`
}

// --- Control plane messages: policy ---

type Policy struct {
	StoreId     string `json:"store_id"`
	Id          string `json:"id"`
	Statement   string `json:"statement"`
	Description string `json:"description,omitempty"`
	TemplateId  string `json:"template_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CreatePolicyRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	Id            string `json:"id"`
	Statement     string `json:"statement"`
	Description   string `json:"description,omitempty"`
	Actor         string `json:"actor,omitempty"`
}

func (r *CreatePolicyRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type CreatePolicyResponse struct {
	Policy *Policy `json:"policy"`
}

type GetPolicyRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	PolicyId      string `json:"policy_id"`
}

func (r *GetPolicyRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type GetPolicyResponse struct {
	Policy *Policy `json:"policy"`
}

type ListPoliciesRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	PageToken     string `json:"page_token,omitempty"`
	PageSize      int32  `json:"page_size,omitempty"`
}

func (r *ListPoliciesRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type ListPoliciesResponse struct {
	Policies      []*Policy `json:"policies"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

type UpdatePolicyRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	PolicyId      string `json:"policy_id"`
	Statement     string `json:"statement"`
	Description   string `json:"description,omitempty"`
	Actor         string `json:"actor,omitempty"`
}

func (r *UpdatePolicyRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type UpdatePolicyResponse struct {
	Policy *Policy `json:"policy"`
}

type DeletePolicyRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	PolicyId      string `json:"policy_id"`
	Actor         string `json:"actor,omitempty"`
}

func (r *DeletePolicyRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type DeletePolicyResponse struct{}

// --- Control plane messages: policy template ---

type PolicyTemplate struct {
	StoreId     string `json:"store_id"`
	Id          string `json:"id"`
	Statement   string `json:"statement"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CreatePolicyTemplateRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	Id            string `json:"id"`
	Statement     string `json:"statement"`
	Description   string `json:"description,omitempty"`
	Actor         string `json:"actor,omitempty"`
}

func (r *CreatePolicyTemplateRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type CreatePolicyTemplateResponse struct {
	Template *PolicyTemplate `json:"template"`
}

type GetPolicyTemplateRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	TemplateId    string `json:"template_id"`
}

func (r *GetPolicyTemplateRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type GetPolicyTemplateResponse struct {
	Template *PolicyTemplate `json:"template"`
}

type ListPolicyTemplatesRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	PageToken     string `json:"page_token,omitempty"`
	PageSize      int32  `json:"page_size,omitempty"`
}

func (r *ListPolicyTemplatesRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type ListPolicyTemplatesResponse struct {
	Templates     []*PolicyTemplate `json:"templates"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

type DeletePolicyTemplateRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	TemplateId    string `json:"template_id"`
	Actor         string `json:"actor,omitempty"`
}

func (r *DeletePolicyTemplateRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type DeletePolicyTemplateResponse struct{}

// --- Control plane messages: identity source ---

// IdentitySourceConfig discriminates on ConfigurationType ("oidc" |
// "cognito"); both variants carry the same field set.
type IdentitySourceConfig struct {
	ConfigurationType   string   `json:"configuration_type"`
	Issuer              string   `json:"issuer"`
	ClientIds           []string `json:"client_ids"`
	JwksUri             string   `json:"jwks_uri,omitempty"`
	GroupClaim          string   `json:"group_claim,omitempty"`
	PrincipalEntityType string   `json:"principal_entity_type,omitempty"`
}

type ClaimsMappingConfiguration struct {
	PrincipalIdClaim  string            `json:"principal_id_claim,omitempty"`
	GroupClaim        string            `json:"group_claim,omitempty"`
	AttributeMappings map[string]string `json:"attribute_mappings,omitempty"`
}

type IdentitySource struct {
	StoreId     string                      `json:"store_id"`
	Id          string                      `json:"id"`
	Config      *IdentitySourceConfig       `json:"config"`
	Claims      *ClaimsMappingConfiguration `json:"claims,omitempty"`
	Description string                      `json:"description,omitempty"`
	CreatedAt   string                      `json:"created_at"`
	UpdatedAt   string                      `json:"updated_at"`
}

type CreateIdentitySourceRequest struct {
	PolicyStoreId string                      `json:"policy_store_id"`
	Id            string                      `json:"id"`
	Config        *IdentitySourceConfig       `json:"config"`
	Claims        *ClaimsMappingConfiguration `json:"claims,omitempty"`
	Description   string                      `json:"description,omitempty"`
	Actor         string                      `json:"actor,omitempty"`
}

func (r *CreateIdentitySourceRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type CreateIdentitySourceResponse struct {
	Source *IdentitySource `json:"source"`
}

type GetIdentitySourceRequest struct {
	PolicyStoreId    string `json:"policy_store_id"`
	IdentitySourceId string `json:"identity_source_id"`
}

func (r *GetIdentitySourceRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type GetIdentitySourceResponse struct {
	Source *IdentitySource `json:"source"`
}

type ListIdentitySourcesRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	PageToken     string `json:"page_token,omitempty"`
	PageSize      int32  `json:"page_size,omitempty"`
}

func (r *ListIdentitySourcesRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type ListIdentitySourcesResponse struct {
	Sources       []*IdentitySource `json:"sources"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

type DeleteIdentitySourceRequest struct {
	PolicyStoreId    string `json:"policy_store_id"`
	IdentitySourceId string `json:"identity_source_id"`
	Actor            string `json:"actor,omitempty"`
}

func (r *DeleteIdentitySourceRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type DeleteIdentitySourceResponse struct{}

// --- Control plane messages: snapshot ---

type Snapshot struct {
	Id          string `json:"id"`
	StoreId     string `json:"store_id"`
	Description string `json:"description,omitempty"`
	PolicyCount int32  `json:"policy_count"`
	HasSchema   bool   `json:"has_schema"`
	SizeBytes   int64  `json:"size_bytes"`
	CreatedAt   string `json:"created_at"`
}

type CreateSnapshotRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	Description   string `json:"description,omitempty"`
	Actor         string `json:"actor,omitempty"`
}

func (r *CreateSnapshotRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type CreateSnapshotResponse struct {
	Snapshot *Snapshot `json:"snapshot"`
}

type ListSnapshotsRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	PageToken     string `json:"page_token,omitempty"`
	PageSize      int32  `json:"page_size,omitempty"`
}

func (r *ListSnapshotsRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type ListSnapshotsResponse struct {
	Snapshots     []*Snapshot `json:"snapshots"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

type RollbackToSnapshotRequest struct {
	PolicyStoreId string `json:"policy_store_id"`
	SnapshotId    string `json:"snapshot_id"`
	Actor         string `json:"actor,omitempty"`
}

func (r *RollbackToSnapshotRequest) GetPolicyStoreId() string { return r.PolicyStoreId }

type RollbackToSnapshotResponse struct {
	PolicyCount int32 `json:"policy_count"`
	HasSchema   bool  `json:"has_schema"`
}
