package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/compiler"
	"github.com/wso2/policy-authz/internal/evaluator"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

func toEntityIdentifier(w pb.EntityIdentifier) authzmodel.EntityIdentifier {
	return authzmodel.EntityIdentifier{EntityType: w.EntityType, EntityId: w.EntityId}
}

func fromEntityIdentifier(d authzmodel.EntityIdentifier) pb.EntityIdentifier {
	return pb.EntityIdentifier{EntityType: d.EntityType, EntityId: d.EntityId}
}

func toContext(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return out, nil
}

func toEntityMap(entities []pb.Entity) (map[authzmodel.EntityIdentifier]*authzmodel.Entity, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	out := make(map[authzmodel.EntityIdentifier]*authzmodel.Entity, len(entities))
	for _, e := range entities {
		attrs := make(map[string]any, len(e.Attributes))
		for k, v := range e.Attributes {
			var decoded any
			if err := json.Unmarshal([]byte(v), &decoded); err != nil {
				return nil, fmt.Errorf("decode attribute %q: %w", k, err)
			}
			attrs[k] = decoded
		}
		parents := make([]authzmodel.EntityIdentifier, len(e.Parents))
		for i, p := range e.Parents {
			parents[i] = toEntityIdentifier(p)
		}
		identifier := toEntityIdentifier(e.Identifier)
		out[identifier] = &authzmodel.Entity{Identifier: identifier, Attributes: attrs, Parents: parents}
	}
	return out, nil
}

func fromDecision(d authzmodel.Decision) pb.Decision {
	if d == authzmodel.Allow {
		return pb.Decision_ALLOW
	}
	return pb.Decision_DENY
}

func fromResult(r *evaluator.Result) (pb.Decision, []string, []string) {
	errs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = fmt.Sprintf("%s: %v", e.PolicyId, e.Err)
	}
	return fromDecision(r.Decision), r.DeterminingPolicyIds, errs
}

func fromDiagnostic(d *compiler.Diagnostic) *pb.Diagnostic {
	if d == nil {
		return nil
	}
	return &pb.Diagnostic{Line: int32(d.Line), Column: int32(d.Column), Kind: string(d.Kind), Message: d.Message}
}

func fromDiagnosticMap(m map[string]*compiler.Diagnostic) map[string]pb.Diagnostic {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]pb.Diagnostic, len(m))
	for k, v := range m {
		out[k] = *fromDiagnostic(v)
	}
	return out
}

func parseSchemaOrNil(raw string) (*authzmodel.ParsedSchema, error) {
	if raw == "" {
		return nil, nil
	}
	return authzmodel.ParseSchema([]byte(raw))
}
