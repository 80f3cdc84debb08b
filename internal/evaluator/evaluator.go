// Package evaluator combines a compiled policy set with a concrete
// authorization request into a decision. It is pure: given the same
// compiled set and request it always returns the same result, and it never
// touches the cache, the repository, or the network.
package evaluator

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/compiler"
	"github.com/wso2/policy-authz/internal/domainerr"
)

// Request is everything needed to evaluate one authorization decision.
type Request struct {
	Principal authzmodel.EntityIdentifier
	Action    authzmodel.EntityIdentifier
	Resource  authzmodel.EntityIdentifier
	Context   map[string]any
	Entities  map[authzmodel.EntityIdentifier]*authzmodel.Entity
}

// PolicyEvalError records a non-fatal failure evaluating one policy's
// when/unless clauses; the policy is treated as not satisfied but
// evaluation of the rest of the set continues.
type PolicyEvalError struct {
	PolicyId string
	Err      error
}

// Result is the outcome of Evaluate.
type Result struct {
	Decision             authzmodel.Decision
	DeterminingPolicyIds []string
	Errors               []PolicyEvalError
}

// Evaluate applies Cedar's combining semantics: a policy set denies by
// default, any satisfied permit policy grants access, and any satisfied
// forbid policy overrides every permit (forbid dominates).
func Evaluate(set *compiler.CompiledPolicySet, req Request) (*Result, error) {
	if err := checkNoCycles(req.Entities); err != nil {
		return nil, err
	}

	activation := buildActivation(req)

	var permitIds, forbidIds []string
	var errs []PolicyEvalError

	for _, p := range set.Policies {
		if !matchesScope(p, req) {
			continue
		}
		satisfied, err := evaluateConditions(p, activation)
		if err != nil {
			errs = append(errs, PolicyEvalError{PolicyId: p.Id, Err: err})
			continue
		}
		if !satisfied {
			continue
		}
		if p.Effect == compiler.Forbid {
			forbidIds = append(forbidIds, p.Id)
		} else {
			permitIds = append(permitIds, p.Id)
		}
	}

	result := &Result{Errors: errs}
	switch {
	case len(forbidIds) > 0:
		result.Decision = authzmodel.Deny
		result.DeterminingPolicyIds = forbidIds
	case len(permitIds) > 0:
		result.Decision = authzmodel.Allow
		result.DeterminingPolicyIds = permitIds
	default:
		result.Decision = authzmodel.Deny
	}
	return result, nil
}

func matchesScope(p *compiler.CompiledPolicy, req Request) bool {
	return matchesConstraint(p.Principal, req.Principal, req.Entities) &&
		matchesConstraint(p.Action, req.Action, req.Entities) &&
		matchesConstraint(p.Resource, req.Resource, req.Entities)
}

func matchesConstraint(c compiler.Constraint, actual authzmodel.EntityIdentifier, entities map[authzmodel.EntityIdentifier]*authzmodel.Entity) bool {
	switch c.Kind {
	case compiler.Unconstrained:
		return true
	case compiler.Eq:
		return refMatches(c.EntityRef, actual)
	case compiler.In:
		if refMatches(c.EntityRef, actual) {
			return true
		}
		return isAncestor(entities, actual, c.EntityRef)
	default:
		return false
	}
}

func refMatches(ref *compiler.EntityRef, actual authzmodel.EntityIdentifier) bool {
	return ref != nil && ref.Type == actual.EntityType && ref.Id == actual.EntityId
}

// isAncestor reports whether ref is a transitive parent of actual, walking
// the entity hierarchy via breadth-first search.
func isAncestor(entities map[authzmodel.EntityIdentifier]*authzmodel.Entity, actual authzmodel.EntityIdentifier, ref *compiler.EntityRef) bool {
	if ref == nil {
		return false
	}
	visited := map[authzmodel.EntityIdentifier]bool{}
	queue := []authzmodel.EntityIdentifier{actual}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		e, ok := entities[cur]
		if !ok {
			continue
		}
		for _, parent := range e.Parents {
			if parent.EntityType == ref.Type && parent.EntityId == ref.Id {
				return true
			}
			queue = append(queue, parent)
		}
	}
	return false
}

// checkNoCycles walks the parent graph of every supplied entity looking
// for a cycle, which would otherwise send isAncestor into an infinite
// breadth-first walk were it not for the visited set — but a cyclic
// hierarchy is itself invalid input and is rejected up front.
func checkNoCycles(entities map[authzmodel.EntityIdentifier]*authzmodel.Entity) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[authzmodel.EntityIdentifier]int, len(entities))

	var visit func(id authzmodel.EntityIdentifier) error
	visit = func(id authzmodel.EntityIdentifier) error {
		switch color[id] {
		case gray:
			return fmt.Errorf("%w: entity %s participates in a parent cycle", domainerr.ErrEntityCycle, id)
		case black:
			return nil
		}
		color[id] = gray
		if e, ok := entities[id]; ok {
			for _, parent := range e.Parents {
				if err := visit(parent); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}

	for id := range entities {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildActivation flattens the request into the variable names the
// compiler's shared CEL environment declares: principal, action, resource,
// context, entities.
func buildActivation(req Request) map[string]any {
	return map[string]any{
		"principal": entityCelValue(req.Principal, req.Entities),
		"action":    identifierCelValue(req.Action),
		"resource":  entityCelValue(req.Resource, req.Entities),
		"context":   contextCelValue(req.Context),
		"entities":  entitiesCelValue(req.Entities),
	}
}

func identifierCelValue(id authzmodel.EntityIdentifier) map[string]any {
	return map[string]any{"type": id.EntityType, "id": id.EntityId}
}

func entityCelValue(id authzmodel.EntityIdentifier, entities map[authzmodel.EntityIdentifier]*authzmodel.Entity) map[string]any {
	v := identifierCelValue(id)
	e, ok := entities[id]
	if !ok {
		v["attrs"] = map[string]any{}
		return v
	}
	v["attrs"] = e.Attributes
	return v
}

func contextCelValue(ctx map[string]any) map[string]any {
	if ctx == nil {
		return map[string]any{}
	}
	return ctx
}

func entitiesCelValue(entities map[authzmodel.EntityIdentifier]*authzmodel.Entity) map[string]any {
	out := make(map[string]any, len(entities))
	for id, e := range entities {
		out[id.String()] = map[string]any{
			"type":  id.EntityType,
			"id":    id.EntityId,
			"attrs": e.Attributes,
		}
	}
	return out
}

// evaluateConditions runs a compiled policy's when/unless clauses against
// the activation and reports whether the policy is satisfied overall: all
// when clauses true, and no unless clause true.
func evaluateConditions(p *compiler.CompiledPolicy, activation map[string]any) (bool, error) {
	for _, prog := range p.WhenPrograms {
		ok, err := evalBool(prog, activation)
		if err != nil {
			return false, fmt.Errorf("when clause: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	for _, prog := range p.UnlessPrograms {
		ok, err := evalBool(prog, activation)
		if err != nil {
			return false, fmt.Errorf("unless clause: %w", err)
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

func evalBool(prog cel.Program, activation map[string]any) (bool, error) {
	out, _, err := prog.Eval(activation)
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition must evaluate to bool, got %T", out.Value())
	}
	return b, nil
}
