package compiler

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/wso2/policy-authz/internal/authzmodel"
)

// CompiledPolicy is a single policy statement, parsed and lowered to
// ready-to-evaluate cel-go programs for its when/unless clauses.
type CompiledPolicy struct {
	Id              string
	SourceStatement string
	Effect          Effect
	Principal       Constraint
	Action          Constraint
	Resource        Constraint
	WhenPrograms    []cel.Program
	UnlessPrograms  []cel.Program
}

// CompiledPolicySet is every compiled policy belonging to one policy store,
// built together so evaluation never has to touch the source text again.
type CompiledPolicySet struct {
	Policies []*CompiledPolicy
}

// env is the single, schema-independent CEL environment shared by every
// compilation. Scope variables are declared as dyn because entity
// attributes are open-ended JSON-shaped values, the same choice the
// platform's request/response CEL environment makes for headers and body.
var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

func sharedEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("principal", cel.DynType),
			cel.Variable("action", cel.DynType),
			cel.Variable("resource", cel.DynType),
			cel.Variable("context", cel.DynType),
			cel.Variable("entities", cel.DynType),
		)
	})
	return env, envErr
}

// Compiler owns the shared program cache keyed by raw CEL expression text,
// following the same double-checked-locking cache shape used elsewhere in
// the platform for compiled CEL programs.
type Compiler struct {
	mu           sync.RWMutex
	programCache map[string]cel.Program
}

// NewCompiler constructs a Compiler with an empty program cache.
func NewCompiler() (*Compiler, error) {
	if _, err := sharedEnv(); err != nil {
		return nil, fmt.Errorf("compiler: building CEL environment: %w", err)
	}
	return &Compiler{programCache: make(map[string]cel.Program)}, nil
}

func (c *Compiler) programFor(expr string) (cel.Program, error) {
	c.mu.RLock()
	if p, ok := c.programCache[expr]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programCache[expr]; ok {
		return p, nil
	}

	e, err := sharedEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := e.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := e.Program(ast)
	if err != nil {
		return nil, err
	}
	c.programCache[expr] = program
	return program, nil
}

// CompilePolicy parses and lowers a single policy statement. schema may be
// nil, in which case entity-type/action references are not cross-checked
// against a declared schema.
func (c *Compiler) CompilePolicy(policyId, statement string, schema *authzmodel.ParsedSchema) (*CompiledPolicy, *Diagnostic) {
	ast, diag := ParsePolicy(statement)
	if diag != nil {
		return nil, diag
	}
	if ast.HasPlaceholders() {
		return nil, newDiagnostic(1, 1, KindSyntax, "policy %q still has unbound template placeholders", policyId)
	}
	if diag := checkSchema(ast, schema); diag != nil {
		return nil, diag
	}

	compiled := &CompiledPolicy{
		Id:              policyId,
		SourceStatement: statement,
		Effect:          ast.Effect,
		Principal:       ast.Principal,
		Action:          ast.Action,
		Resource:        ast.Resource,
	}

	for _, expr := range ast.WhenClauses {
		p, err := c.programFor(expr)
		if err != nil {
			return nil, newDiagnostic(1, 1, KindTypeMismatch, "policy %q: when clause: %v", policyId, err)
		}
		compiled.WhenPrograms = append(compiled.WhenPrograms, p)
	}
	for _, expr := range ast.UnlessClauses {
		p, err := c.programFor(expr)
		if err != nil {
			return nil, newDiagnostic(1, 1, KindTypeMismatch, "policy %q: unless clause: %v", policyId, err)
		}
		compiled.UnlessPrograms = append(compiled.UnlessPrograms, p)
	}

	return compiled, nil
}

// CompilePolicySet compiles every (id, statement) pair for a store. It does
// not stop at the first failure: every policy is attempted, so a caller can
// surface all diagnostics for a bulk validation response.
func (c *Compiler) CompilePolicySet(statements map[string]string, schema *authzmodel.ParsedSchema) (*CompiledPolicySet, map[string]*Diagnostic) {
	set := &CompiledPolicySet{}
	failures := make(map[string]*Diagnostic)
	for id, stmt := range statements {
		cp, diag := c.CompilePolicy(id, stmt, schema)
		if diag != nil {
			failures[id] = diag
			continue
		}
		set.Policies = append(set.Policies, cp)
	}
	if len(failures) == 0 {
		failures = nil
	}
	return set, failures
}

func checkSchema(ast *PolicyAST, schema *authzmodel.ParsedSchema) *Diagnostic {
	if schema == nil {
		return nil
	}
	for _, c := range []struct {
		name string
		c    Constraint
	}{{"principal", ast.Principal}, {"resource", ast.Resource}} {
		if c.c.EntityRef == nil {
			continue
		}
		if !schema.HasEntityType(c.c.EntityRef.Type) {
			return newDiagnostic(1, 1, KindUnknownEntityType, "%s references unknown entity type %q", c.name, c.c.EntityRef.Type)
		}
	}
	if ast.Action.EntityRef != nil && !schema.HasAction(ast.Action.EntityRef.Id) {
		return newDiagnostic(1, 1, KindUnknownEntityType, "action references unknown action %q", ast.Action.EntityRef.Id)
	}
	return nil
}

// InstantiateTemplate substitutes a template's ?principal/?resource
// placeholders with concrete entity references, producing a standalone
// PolicyAST ready for CompilePolicy. Either binding may be nil if the
// template does not use that placeholder.
func InstantiateTemplate(tmpl *PolicyAST, principalBinding, resourceBinding *EntityRef) (*PolicyAST, error) {
	out := *tmpl
	if tmpl.Principal.IsTemplateSlot() {
		if principalBinding == nil {
			return nil, fmt.Errorf("template requires a principal binding")
		}
		out.Principal = Constraint{Kind: tmpl.Principal.Kind, EntityRef: principalBinding}
	}
	if tmpl.Resource.IsTemplateSlot() {
		if resourceBinding == nil {
			return nil, fmt.Errorf("template requires a resource binding")
		}
		out.Resource = Constraint{Kind: tmpl.Resource.Kind, EntityRef: resourceBinding}
	}
	return &out, nil
}
