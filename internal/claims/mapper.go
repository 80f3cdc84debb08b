package claims

import (
	"fmt"
	"strings"

	"github.com/wso2/policy-authz/internal/authzmodel"
)

// MapToEntity builds a principal Entity from validated JWT claims
// according to an identity source's ClaimsMapping, resolving the
// principal id, its parent group entities, and any declared attribute
// mappings.
func MapToEntity(rawClaims map[string]any, mapping *authzmodel.ClaimsMapping, principalEntityType, defaultGroupEntityType string) (*authzmodel.Entity, error) {
	idClaimPath := mapping.PrincipalIdClaimPath
	if idClaimPath == "" {
		idClaimPath = "sub"
	}
	idValue, ok := getClaimPath(rawClaims, idClaimPath)
	if !ok {
		return nil, fmt.Errorf("claims: principal id claim %q not present", idClaimPath)
	}
	idStr, ok := idValue.(string)
	if !ok {
		return nil, fmt.Errorf("claims: principal id claim %q is not a string", idClaimPath)
	}
	principalId, err := ApplyChain(mapping.PrincipalIdTransforms, idStr)
	if err != nil {
		return nil, fmt.Errorf("claims: transforming principal id: %w", err)
	}

	entity := &authzmodel.Entity{
		Identifier: authzmodel.EntityIdentifier{EntityType: principalEntityType, EntityId: principalId},
		Attributes: map[string]any{},
	}

	groupEntityType := mapping.GroupEntityType
	if groupEntityType == "" {
		groupEntityType = defaultGroupEntityType
	}
	if mapping.GroupClaimPath != "" {
		if raw, ok := getClaimPath(rawClaims, mapping.GroupClaimPath); ok {
			groups, err := ApplyToValue(nil, raw)
			if err != nil {
				return nil, fmt.Errorf("claims: reading group claim %q: %w", mapping.GroupClaimPath, err)
			}
			for _, g := range groups {
				gs, ok := g.(string)
				if !ok {
					return nil, fmt.Errorf("claims: group claim %q element %v is not a string", mapping.GroupClaimPath, g)
				}
				entity.Parents = append(entity.Parents, authzmodel.EntityIdentifier{EntityType: groupEntityType, EntityId: gs})
			}
		}
	}

	for _, am := range mapping.AttributeMappings {
		raw, ok := getClaimPath(rawClaims, am.ClaimPath)
		if !ok {
			continue
		}
		values, err := ApplyToValue(am.Transforms, raw)
		if err != nil {
			return nil, fmt.Errorf("claims: mapping attribute %q from claim %q: %w", am.AttributeName, am.ClaimPath, err)
		}
		switch len(values) {
		case 0:
			continue
		case 1:
			entity.Attributes[am.AttributeName] = values[0]
		default:
			entity.Attributes[am.AttributeName] = values
		}
	}

	return entity, nil
}

// getClaimPath resolves a dotted claim path (e.g. "realm_access.roles")
// against nested claim maps, the common shape of OIDC custom claims.
func getClaimPath(claims map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var cur any = claims
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
