package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePolicyUnconstrained(t *testing.T) {
	ast, diag := ParsePolicy(`permit(principal, action, resource);`)
	require.Nil(t, diag)
	require.Equal(t, Permit, ast.Effect)
	require.Equal(t, Unconstrained, ast.Principal.Kind)
	require.Equal(t, Unconstrained, ast.Action.Kind)
	require.Equal(t, Unconstrained, ast.Resource.Kind)
}

func TestParsePolicyWithEntityRefsAndWhen(t *testing.T) {
	src := `permit(
		principal == User::"alice",
		action == Action::"read",
		resource in Folder::"shared"
	) when {
		context.mfa == true
	};`
	ast, diag := ParsePolicy(src)
	require.Nil(t, diag)
	require.Equal(t, Eq, ast.Principal.Kind)
	require.Equal(t, "User", ast.Principal.EntityRef.Type)
	require.Equal(t, "alice", ast.Principal.EntityRef.Id)
	require.Equal(t, In, ast.Resource.Kind)
	require.Equal(t, "Folder", ast.Resource.EntityRef.Type)
	require.Len(t, ast.WhenClauses, 1)
	require.Contains(t, ast.WhenClauses[0], "context.mfa")
}

func TestParsePolicyForbidWithUnless(t *testing.T) {
	src := `forbid(principal, action, resource) unless { principal.verified == true };`
	ast, diag := ParsePolicy(src)
	require.Nil(t, diag)
	require.Equal(t, Forbid, ast.Effect)
	require.Len(t, ast.UnlessClauses, 1)
}

func TestParsePolicyTemplatePlaceholders(t *testing.T) {
	src := `permit(principal == ?principal, action, resource == ?resource);`
	ast, diag := ParsePolicy(src)
	require.Nil(t, diag)
	require.True(t, ast.HasPlaceholders())
	require.Equal(t, "?principal", ast.Principal.Placeholder)
	require.Equal(t, "?resource", ast.Resource.Placeholder)
}

func TestParsePolicyBraceBalancedWhenBody(t *testing.T) {
	src := `permit(principal, action, resource) when {
		context.tags.exists(t, t == "urgent") && context.meta == {"a": 1}
	};`
	ast, diag := ParsePolicy(src)
	require.Nil(t, diag)
	require.Len(t, ast.WhenClauses, 1)
	require.Contains(t, ast.WhenClauses[0], `{"a": 1}`)
}

func TestParsePolicySyntaxErrors(t *testing.T) {
	cases := []string{
		`allow(principal, action, resource);`,
		`permit(principal, action, resource)`,
		`permit(principal == ?action, action, resource);`,
		`permit(principal, action == ?action, resource);`,
		`permit(principal == User, action, resource);`,
	}
	for _, src := range cases {
		_, diag := ParsePolicy(src)
		require.NotNil(t, diag, "expected diagnostic for %q", src)
		require.Equal(t, KindSyntax, diag.Kind)
	}
}
