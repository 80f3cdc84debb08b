package claims

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wso2/policy-authz/internal/authzmodel"
)

func TestMapToEntityBuildsPrincipalWithGroupsAndAttributes(t *testing.T) {
	rawClaims := map[string]any{
		"sub": "urn:user:alice",
		"realm_access": map[string]any{
			"roles": []any{"Admins", "Billing"},
		},
		"email": "alice@example.com",
	}
	mapping := &authzmodel.ClaimsMapping{
		PrincipalIdClaimPath: "sub",
		PrincipalIdTransforms: []authzmodel.TransformSpec{
			{Kind: "split_last", Sep: ":"},
		},
		GroupClaimPath:  "realm_access.roles",
		GroupEntityType: "RealmRole",
		AttributeMappings: []authzmodel.AttributeMapping{
			{ClaimPath: "email", AttributeName: "email"},
		},
	}

	entity, err := MapToEntity(rawClaims, mapping, "User", "RealmRole")
	require.NoError(t, err)
	require.Equal(t, "alice", entity.Identifier.EntityId)
	require.Equal(t, "User", entity.Identifier.EntityType)
	require.Equal(t, "alice@example.com", entity.Attributes["email"])
	require.ElementsMatch(t, []authzmodel.EntityIdentifier{
		{EntityType: "RealmRole", EntityId: "Admins"},
		{EntityType: "RealmRole", EntityId: "Billing"},
	}, entity.Parents)
}

func TestMapToEntityMissingPrincipalClaimFails(t *testing.T) {
	mapping := &authzmodel.ClaimsMapping{PrincipalIdClaimPath: "sub"}
	_, err := MapToEntity(map[string]any{}, mapping, "User", "RealmRole")
	require.Error(t, err)
}

func TestMapToEntityPreservesBoolAndNumberAttributeTypes(t *testing.T) {
	rawClaims := map[string]any{
		"sub":      "alice",
		"verified": true,
		"level":    float64(3),
	}
	mapping := &authzmodel.ClaimsMapping{
		PrincipalIdClaimPath: "sub",
		AttributeMappings: []authzmodel.AttributeMapping{
			{ClaimPath: "verified", AttributeName: "verified"},
			{ClaimPath: "level", AttributeName: "level"},
		},
	}

	entity, err := MapToEntity(rawClaims, mapping, "User", "UserGroup")
	require.NoError(t, err)
	require.Equal(t, true, entity.Attributes["verified"])
	require.Equal(t, float64(3), entity.Attributes["level"])
}

func TestMapToEntityFallsBackToDefaultGroupEntityType(t *testing.T) {
	rawClaims := map[string]any{
		"sub":    "alice",
		"groups": []any{"admins"},
	}
	mapping := &authzmodel.ClaimsMapping{
		PrincipalIdClaimPath: "sub",
		GroupClaimPath:       "groups",
	}
	entity, err := MapToEntity(rawClaims, mapping, "User", "UserGroup")
	require.NoError(t, err)
	require.Equal(t, []authzmodel.EntityIdentifier{{EntityType: "UserGroup", EntityId: "admins"}}, entity.Parents)
}
