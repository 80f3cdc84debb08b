// Package claims turns a validated JWT's claims into a principal Entity,
// using a composable value-transform algebra that can shape any claim into
// any attribute or principal id.
package claims

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wso2/policy-authz/internal/authzmodel"
)

// Apply runs a single transform step against value.
func Apply(spec authzmodel.TransformSpec, value string) (string, error) {
	switch spec.Kind {
	case "", "none":
		return value, nil
	case "split_last":
		sep := spec.Sep
		if sep == "" {
			sep = "/"
		}
		parts := strings.Split(value, sep)
		return parts[len(parts)-1], nil
	case "regex_capture":
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return "", fmt.Errorf("claims: invalid regex_capture pattern %q: %w", spec.Pattern, err)
		}
		m := re.FindStringSubmatch(value)
		group := spec.Group
		if group < 0 || group >= len(m) {
			return "", fmt.Errorf("claims: regex_capture pattern %q did not capture group %d in %q", spec.Pattern, group, value)
		}
		return m[group], nil
	case "regex_replace":
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return "", fmt.Errorf("claims: invalid regex_replace pattern %q: %w", spec.Pattern, err)
		}
		return re.ReplaceAllString(value, spec.Replacement), nil
	case "prefix":
		return spec.Literal + value, nil
	case "suffix":
		return value + spec.Literal, nil
	case "lowercase":
		return strings.ToLower(value), nil
	case "uppercase":
		return strings.ToUpper(value), nil
	case "trim":
		if spec.Literal == "" {
			return strings.TrimSpace(value), nil
		}
		return strings.Trim(value, spec.Literal), nil
	case "chain":
		return ApplyChain(spec.Chain, value)
	default:
		return "", fmt.Errorf("claims: unknown transform kind %q", spec.Kind)
	}
}

// ApplyChain folds a sequence of transforms over value, each consuming the
// previous step's output.
func ApplyChain(specs []authzmodel.TransformSpec, value string) (string, error) {
	out := value
	for _, spec := range specs {
		var err error
		out, err = Apply(spec, out)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

// ApplyToValue applies a transform chain element-wise when raw is a slice
// (e.g. an array-valued claim such as a groups list), or once when raw is a
// scalar, returning the resulting values in order. Transforms are a
// string-to-string algebra (split/regex/case/affix), so they only ever run
// against string claim values; a bool or number claim with no transforms
// configured passes through untouched so it keeps mapping to a CEL bool or
// long instead of collapsing to its string representation.
func ApplyToValue(specs []authzmodel.TransformSpec, raw any) ([]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		out, err := ApplyChain(specs, v)
		if err != nil {
			return nil, err
		}
		return []any{out}, nil
	case []any:
		results := make([]any, 0, len(v))
		for _, elem := range v {
			out, err := applyToElement(specs, elem)
			if err != nil {
				return nil, err
			}
			results = append(results, out)
		}
		return results, nil
	case []string:
		results := make([]any, 0, len(v))
		for _, s := range v {
			out, err := ApplyChain(specs, s)
			if err != nil {
				return nil, err
			}
			results = append(results, out)
		}
		return results, nil
	default:
		// bool, float64 (JSON numbers), and anything else untyped-JSON can
		// produce: no string transform applies, so keep the native type.
		return []any{v}, nil
	}
}

// applyToElement transforms a single slice element: strings run through the
// transform chain, everything else (bool, float64, nested structures) is
// returned as-is.
func applyToElement(specs []authzmodel.TransformSpec, elem any) (any, error) {
	s, ok := elem.(string)
	if !ok {
		return elem, nil
	}
	return ApplyChain(specs, s)
}
