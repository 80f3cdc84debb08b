package claims

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wso2/policy-authz/internal/authzmodel"
)

func TestApplySplitLast(t *testing.T) {
	out, err := Apply(authzmodel.TransformSpec{Kind: "split_last", Sep: "/"}, "org/team/alice")
	require.NoError(t, err)
	require.Equal(t, "alice", out)
}

func TestApplyRegexCapture(t *testing.T) {
	out, err := Apply(authzmodel.TransformSpec{Kind: "regex_capture", Pattern: `^urn:group:(\w+)$`, Group: 1}, "urn:group:admins")
	require.NoError(t, err)
	require.Equal(t, "admins", out)
}

func TestApplyRegexReplace(t *testing.T) {
	out, err := Apply(authzmodel.TransformSpec{Kind: "regex_replace", Pattern: `-`, Replacement: "_"}, "team-a-b")
	require.NoError(t, err)
	require.Equal(t, "team_a_b", out)
}

func TestApplyPrefixSuffixCaseTrim(t *testing.T) {
	out, err := Apply(authzmodel.TransformSpec{Kind: "prefix", Literal: "role:"}, "admin")
	require.NoError(t, err)
	require.Equal(t, "role:admin", out)

	out, err = Apply(authzmodel.TransformSpec{Kind: "suffix", Literal: "@corp"}, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice@corp", out)

	out, err = Apply(authzmodel.TransformSpec{Kind: "uppercase"}, "alice")
	require.NoError(t, err)
	require.Equal(t, "ALICE", out)

	out, err = Apply(authzmodel.TransformSpec{Kind: "lowercase"}, "ALICE")
	require.NoError(t, err)
	require.Equal(t, "alice", out)

	out, err = Apply(authzmodel.TransformSpec{Kind: "trim", Literal: "#"}, "##alice##")
	require.NoError(t, err)
	require.Equal(t, "alice", out)
}

func TestApplyChainComposesInOrder(t *testing.T) {
	chain := []authzmodel.TransformSpec{
		{Kind: "split_last", Sep: ":"},
		{Kind: "lowercase"},
		{Kind: "prefix", Literal: "g-"},
	}
	out, err := ApplyChain(chain, "ORG:TEAM:ADMINS")
	require.NoError(t, err)
	require.Equal(t, "g-admins", out)
}

func TestApplyToValueHandlesArrayClaim(t *testing.T) {
	raw := []any{"Admins", "Viewers"}
	out, err := ApplyToValue([]authzmodel.TransformSpec{{Kind: "lowercase"}}, raw)
	require.NoError(t, err)
	require.Equal(t, []any{"admins", "viewers"}, out)
}

func TestApplyToValuePassesThroughUntransformedBool(t *testing.T) {
	out, err := ApplyToValue(nil, true)
	require.NoError(t, err)
	require.Equal(t, []any{true}, out)
}

func TestApplyToValuePassesThroughUntransformedNumber(t *testing.T) {
	out, err := ApplyToValue(nil, float64(3))
	require.NoError(t, err)
	require.Equal(t, []any{float64(3)}, out)
}

func TestApplyToValueMixedArrayKeepsNonStringElementsTyped(t *testing.T) {
	raw := []any{"Admins", true, float64(2)}
	out, err := ApplyToValue([]authzmodel.TransformSpec{{Kind: "lowercase"}}, raw)
	require.NoError(t, err)
	require.Equal(t, []any{"admins", true, float64(2)}, out)
}

func TestApplyUnknownKindErrors(t *testing.T) {
	_, err := Apply(authzmodel.TransformSpec{Kind: "nonsense"}, "x")
	require.Error(t, err)
}
