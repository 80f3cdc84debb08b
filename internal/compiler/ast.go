// Package compiler parses the Cedar-family policy surface syntax into an
// AST, and lowers the `when`/`unless` clauses to cel-go programs. It is
// pure: it never touches I/O.
package compiler

// Effect is the statement-level verb: permit or forbid.
type Effect int

const (
	Permit Effect = iota
	Forbid
)

func (e Effect) String() string {
	if e == Forbid {
		return "forbid"
	}
	return "permit"
}

// ConstraintKind is the shape of a scope clause constraint.
type ConstraintKind int

const (
	// Unconstrained matches any entity in that scope slot.
	Unconstrained ConstraintKind = iota
	// Eq requires the scope slot to equal a specific entity.
	Eq
	// In requires the scope slot's entity (or one of its transitive
	// parents) to equal a specific entity.
	In
)

// EntityRef is a concrete `Type::"id"` literal.
type EntityRef struct {
	Type string
	Id   string
}

// Constraint is one of the three scope clauses (principal/action/resource).
// Exactly one of EntityRef or Placeholder is set when Kind != Unconstrained
// and the clause is template-parametric.
type Constraint struct {
	Kind        ConstraintKind
	EntityRef   *EntityRef
	Placeholder string // "?principal" or "?resource", empty if not a template slot
}

// IsTemplateSlot reports whether this constraint still needs a placeholder
// binding before the policy can be compiled.
func (c Constraint) IsTemplateSlot() bool {
	return c.Placeholder != ""
}

// PolicyAST is the parsed form of a single policy statement.
type PolicyAST struct {
	Effect        Effect
	Principal     Constraint
	Action        Constraint
	Resource      Constraint
	WhenClauses   []string // raw CEL source, in source order
	UnlessClauses []string
}

// HasPlaceholders reports whether the AST still contains ?principal or
// ?resource and therefore belongs to a template rather than a concrete
// policy.
func (p *PolicyAST) HasPlaceholders() bool {
	return p.Principal.IsTemplateSlot() || p.Resource.IsTemplateSlot()
}
