package authzmodel

import (
	"encoding/json"
	"fmt"

	"github.com/wso2/policy-authz/internal/domainerr"
)

// Schema is the JSON document describing a store's entity types and actions.
type Schema struct {
	StoreId string
	Raw     json.RawMessage
}

// entityTypeDef and actionDef model just enough of the schema format to
// support the validation the compiler needs: entity type
// membership and action applicability.
type entityTypeDef struct {
	Shape        json.RawMessage `json:"shape,omitempty"`
	MemberOf     []string        `json:"memberOfTypes,omitempty"`
}

type appliesTo struct {
	PrincipalTypes []string        `json:"principalTypes"`
	ResourceTypes  []string        `json:"resourceTypes"`
	Context        json.RawMessage `json:"context,omitempty"`
}

type actionDef struct {
	AppliesTo appliesTo `json:"appliesTo"`
}

type namespaceBody struct {
	EntityTypes map[string]entityTypeDef `json:"entityTypes"`
	Actions     map[string]actionDef     `json:"actions"`
	Annotations map[string]string        `json:"annotations,omitempty"`
	CommonTypes json.RawMessage          `json:"commonTypes,omitempty"`
}

// ParsedSchema is the validated, in-memory form of a Schema used by the
// compiler to check entity type and action references.
type ParsedSchema struct {
	Namespace   string
	EntityTypes map[string]entityTypeDef
	Actions     map[string]actionDef
}

// ParseSchema validates that raw is well-formed JSON with a single top-level
// namespace key and returns the parsed form.
func ParseSchema(raw json.RawMessage) (*ParsedSchema, error) {
	var doc map[string]namespaceBody
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrSchemaMalformed, err)
	}
	if len(doc) != 1 {
		return nil, fmt.Errorf("%w: schema must declare exactly one top-level namespace, found %d", domainerr.ErrSchemaMalformed, len(doc))
	}
	var ns string
	var body namespaceBody
	for k, v := range doc {
		ns, body = k, v
	}
	for actionName, def := range body.Actions {
		for _, pt := range def.AppliesTo.PrincipalTypes {
			if _, ok := body.EntityTypes[pt]; !ok {
				return nil, fmt.Errorf("%w: action %q references unknown principal type %q", domainerr.ErrSchemaValidationFailed, actionName, pt)
			}
		}
		for _, rt := range def.AppliesTo.ResourceTypes {
			if _, ok := body.EntityTypes[rt]; !ok {
				return nil, fmt.Errorf("%w: action %q references unknown resource type %q", domainerr.ErrSchemaValidationFailed, actionName, rt)
			}
		}
	}
	return &ParsedSchema{Namespace: ns, EntityTypes: body.EntityTypes, Actions: body.Actions}, nil
}

// HasEntityType reports whether the schema declares the given entity type.
func (p *ParsedSchema) HasEntityType(t string) bool {
	_, ok := p.EntityTypes[t]
	return ok
}

// HasAction reports whether the schema declares the given action.
func (p *ParsedSchema) HasAction(name string) bool {
	_, ok := p.Actions[name]
	return ok
}
