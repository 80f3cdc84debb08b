package rpc

import (
	"time"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

func fromPolicyStore(s *authzmodel.PolicyStore) *pb.PolicyStore {
	sources := s.IdentitySources()
	sourceIds := make([]string, len(sources))
	for i, src := range sources {
		sourceIds[i] = src.String()
	}
	var defaultSource string
	if d, ok := s.DefaultIdentitySourceId(); ok {
		defaultSource = d.String()
	}
	return &pb.PolicyStore{
		Id:                      s.Id.String(),
		Name:                    s.Name,
		Description:             s.Description,
		Status:                  string(s.Status),
		Version:                 s.Version,
		Author:                  s.Author,
		Tags:                    s.Tags(),
		IdentitySources:         sourceIds,
		DefaultIdentitySourceId: defaultSource,
		CreatedAt:               s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:               s.UpdatedAt.Format(time.RFC3339),
	}
}

func fromPolicy(p *authzmodel.Policy) *pb.Policy {
	out := &pb.Policy{
		StoreId:     p.StoreId,
		Id:          p.Id,
		Statement:   p.Statement,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Template != nil {
		out.TemplateId = p.Template.TemplateId
	}
	return out
}

func fromTemplate(t *authzmodel.PolicyTemplate) *pb.PolicyTemplate {
	return &pb.PolicyTemplate{
		StoreId:     t.StoreId,
		Id:          t.Id,
		Statement:   t.Statement,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

func toIdentitySource(w *pb.CreateIdentitySourceRequest) *authzmodel.IdentitySource {
	kind := authzmodel.KindOIDC
	if w.Config.ConfigurationType == "cognito" {
		kind = authzmodel.KindCognito
	}
	src := &authzmodel.IdentitySource{
		Kind: kind,
		Config: authzmodel.IdentitySourceConfig{
			IssuerURL:           w.Config.Issuer,
			AcceptedClientIds:   w.Config.ClientIds,
			JWKSUri:             w.Config.JwksUri,
			GroupClaimPath:      w.Config.GroupClaim,
			PrincipalEntityType: w.Config.PrincipalEntityType,
		},
		Description: w.Description,
	}
	if w.Claims != nil {
		mapping := &authzmodel.ClaimsMapping{
			PrincipalIdClaimPath: w.Claims.PrincipalIdClaim,
			GroupClaimPath:       w.Claims.GroupClaim,
		}
		for attr, claimPath := range w.Claims.AttributeMappings {
			mapping.AttributeMappings = append(mapping.AttributeMappings, authzmodel.AttributeMapping{
				ClaimPath: claimPath, AttributeName: attr,
			})
		}
		src.Claims = mapping
	}
	return src
}

func fromIdentitySource(s *authzmodel.IdentitySource) *pb.IdentitySource {
	out := &pb.IdentitySource{
		StoreId: s.StoreId,
		Id:      s.Id,
		Config: &pb.IdentitySourceConfig{
			ConfigurationType:   string(s.Kind),
			Issuer:              s.Config.IssuerURL,
			ClientIds:           s.Config.AcceptedClientIds,
			JwksUri:             s.Config.JWKSUri,
			GroupClaim:          s.Config.GroupClaimPath,
			PrincipalEntityType: s.Config.PrincipalEntityType,
		},
		Description: s.Description,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
	if s.Claims != nil {
		claims := &pb.ClaimsMappingConfiguration{
			PrincipalIdClaim: s.Claims.PrincipalIdClaimPath,
			GroupClaim:       s.Claims.GroupClaimPath,
		}
		if len(s.Claims.AttributeMappings) > 0 {
			claims.AttributeMappings = make(map[string]string, len(s.Claims.AttributeMappings))
			for _, m := range s.Claims.AttributeMappings {
				claims.AttributeMappings[m.AttributeName] = m.ClaimPath
			}
		}
		out.Claims = claims
	}
	return out
}

func fromSnapshot(s *authzmodel.Snapshot) *pb.Snapshot {
	return &pb.Snapshot{
		Id:          s.Id,
		StoreId:     s.StoreId,
		Description: s.Description,
		PolicyCount: int32(s.PolicyCount),
		HasSchema:   s.HasSchema,
		SizeBytes:   s.SizeBytes,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}
