package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstantiateTemplateBindsBothPlaceholders(t *testing.T) {
	tmpl, diag := ParsePolicy(`permit(principal == ?principal, action, resource == ?resource);`)
	require.Nil(t, diag)

	bound, err := InstantiateTemplate(tmpl, &EntityRef{Type: "User", Id: "alice"}, &EntityRef{Type: "Document", Id: "d1"})
	require.NoError(t, err)
	require.False(t, bound.HasPlaceholders())
	require.Equal(t, "User", bound.Principal.EntityRef.Type)
	require.Equal(t, "Document", bound.Resource.EntityRef.Type)

	c, err := NewCompiler()
	require.NoError(t, err)
	statement := renderBoundPolicy(bound)
	_, compileDiag := c.CompilePolicy("instantiated", statement, nil)
	require.Nil(t, compileDiag)
}

func TestInstantiateTemplateRequiresBindingWhenPlaceholderPresent(t *testing.T) {
	tmpl, diag := ParsePolicy(`permit(principal == ?principal, action, resource);`)
	require.Nil(t, diag)

	_, err := InstantiateTemplate(tmpl, nil, nil)
	require.Error(t, err)
}

// renderBoundPolicy turns a bound AST back into surface syntax so the
// result can be fed through ParsePolicy/CompilePolicy again.
func renderBoundPolicy(ast *PolicyAST) string {
	return `permit(principal == ` + ast.Principal.EntityRef.Type + `::"` + ast.Principal.EntityRef.Id + `", action, resource == ` +
		ast.Resource.EntityRef.Type + `::"` + ast.Resource.EntityRef.Id + `");`
}
