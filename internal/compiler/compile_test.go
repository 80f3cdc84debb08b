package compiler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wso2/policy-authz/internal/authzmodel"
)

func TestCompilePolicySimple(t *testing.T) {
	c, err := NewCompiler()
	require.NoError(t, err)

	cp, diag := c.CompilePolicy("p1", `permit(principal, action, resource) when { context.mfa == true };`, nil)
	require.Nil(t, diag)
	require.Equal(t, "p1", cp.Id)
	require.Len(t, cp.WhenPrograms, 1)
}

func TestCompilePolicyInvalidCelExpression(t *testing.T) {
	c, err := NewCompiler()
	require.NoError(t, err)

	_, diag := c.CompilePolicy("p1", `permit(principal, action, resource) when { context. };`, nil)
	require.NotNil(t, diag)
	require.Equal(t, KindTypeMismatch, diag.Kind)
}

func TestCompilePolicyRejectsUnboundTemplate(t *testing.T) {
	c, err := NewCompiler()
	require.NoError(t, err)

	_, diag := c.CompilePolicy("p1", `permit(principal == ?principal, action, resource);`, nil)
	require.NotNil(t, diag)
}

func TestCompilePolicySchemaValidation(t *testing.T) {
	c, err := NewCompiler()
	require.NoError(t, err)

	rawSchema := json.RawMessage(`{
		"Demo": {
			"entityTypes": {"User": {}, "Document": {}},
			"actions": {"read": {"appliesTo": {"principalTypes": ["User"], "resourceTypes": ["Document"]}}}
		}
	}`)
	parsed, err := authzmodel.ParseSchema(rawSchema)
	require.NoError(t, err)

	_, diag := c.CompilePolicy("p1", `permit(principal == Group::"x", action == Action::"read", resource);`, parsed)
	require.NotNil(t, diag)
	require.Equal(t, KindUnknownEntityType, diag.Kind)

	_, diag = c.CompilePolicy("p2", `permit(principal == User::"alice", action == Action::"read", resource == Document::"d1");`, parsed)
	require.Nil(t, diag)
}

func TestCompilePolicySetCollectsAllFailures(t *testing.T) {
	c, err := NewCompiler()
	require.NoError(t, err)

	statements := map[string]string{
		"good": `permit(principal, action, resource);`,
		"bad":  `nope(principal, action, resource);`,
	}
	set, failures := c.CompilePolicySet(statements, nil)
	require.Len(t, set.Policies, 1)
	require.Len(t, failures, 1)
	require.Contains(t, failures, "bad")
}

func TestCompilerProgramCacheIsReused(t *testing.T) {
	c, err := NewCompiler()
	require.NoError(t, err)

	expr := `context.mfa == true`
	p1, err := c.programFor(expr)
	require.NoError(t, err)
	p2, err := c.programFor(expr)
	require.NoError(t, err)
	require.Same(t, p1, p2)
}
