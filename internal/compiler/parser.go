package compiler

// ParsePolicy parses a single policy statement of the form:
//
//	permit(principal, action, resource) when {...} unless {...};
//	forbid(principal == User::"alice", action in Action::"read", resource) when {...};
//
// Scope clauses may be unconstrained (bare `principal`), an equality
// (`principal == User::"alice"`), a hierarchy membership
// (`principal in Group::"admins"`), or — for principal/resource only — a
// template placeholder (`principal == ?principal`).
func ParsePolicy(src string) (*PolicyAST, *Diagnostic) {
	s := newScanner(src)

	effect, diag := parseEffect(s)
	if diag != nil {
		return nil, diag
	}

	if !s.matchByte('(') {
		return nil, syntaxHere(s, "expected '(' after %s", effect)
	}

	principal, diag := parseScopeClause(s, "principal", true)
	if diag != nil {
		return nil, diag
	}
	if !s.matchByte(',') {
		return nil, syntaxHere(s, "expected ',' after principal clause")
	}

	action, diag := parseScopeClause(s, "action", false)
	if diag != nil {
		return nil, diag
	}
	if !s.matchByte(',') {
		return nil, syntaxHere(s, "expected ',' after action clause")
	}

	resource, diag := parseScopeClause(s, "resource", true)
	if diag != nil {
		return nil, diag
	}
	if !s.matchByte(')') {
		return nil, syntaxHere(s, "expected ')' to close scope clauses")
	}

	ast := &PolicyAST{
		Effect:    effect,
		Principal: principal,
		Action:    action,
		Resource:  resource,
	}

	for {
		if s.matchKeyword("when") {
			body, ok := s.readBalancedBraces()
			if !ok {
				return nil, syntaxHere(s, "unterminated when {...} block")
			}
			ast.WhenClauses = append(ast.WhenClauses, body)
			continue
		}
		if s.matchKeyword("unless") {
			body, ok := s.readBalancedBraces()
			if !ok {
				return nil, syntaxHere(s, "unterminated unless {...} block")
			}
			ast.UnlessClauses = append(ast.UnlessClauses, body)
			continue
		}
		break
	}

	if !s.matchByte(';') {
		return nil, syntaxHere(s, "expected ';' to terminate the policy statement")
	}

	s.skipWhitespaceAndComments()
	if !s.eof() {
		return nil, syntaxHere(s, "unexpected trailing content after ';'")
	}

	return ast, nil
}

func parseEffect(s *scanner) (Effect, *Diagnostic) {
	if s.matchKeyword("permit") {
		return Permit, nil
	}
	if s.matchKeyword("forbid") {
		return Forbid, nil
	}
	return 0, syntaxHere(s, "expected 'permit' or 'forbid'")
}

// parseScopeClause parses one of the three comma-separated clauses inside
// the scope parens. allowPlaceholder is true for principal/resource, which
// may carry a ?principal/?resource template slot instead of a concrete
// entity reference.
func parseScopeClause(s *scanner, name string, allowPlaceholder bool) (Constraint, *Diagnostic) {
	if !s.matchKeyword(name) {
		return Constraint{}, syntaxHere(s, "expected '%s'", name)
	}

	if s.matchKeyword("==") {
		return parseConstraintOperand(s, name, Eq, allowPlaceholder)
	}
	if s.matchKeyword("in") {
		return parseConstraintOperand(s, name, In, allowPlaceholder)
	}
	return Constraint{Kind: Unconstrained}, nil
}

func parseConstraintOperand(s *scanner, name string, kind ConstraintKind, allowPlaceholder bool) (Constraint, *Diagnostic) {
	if allowPlaceholder {
		placeholder := "?" + name
		if s.matchByte('?') {
			ident, ok := s.readIdent()
			if !ok || ident != name {
				return Constraint{}, syntaxHere(s, "expected placeholder '%s'", placeholder)
			}
			return Constraint{Kind: kind, Placeholder: placeholder}, nil
		}
	}

	ref, diag := parseEntityRef(s)
	if diag != nil {
		return Constraint{}, diag
	}
	return Constraint{Kind: kind, EntityRef: ref}, nil
}

// parseEntityRef parses a `Type::"id"` literal.
func parseEntityRef(s *scanner) (*EntityRef, *Diagnostic) {
	typ, ok := s.readIdent()
	if !ok {
		return nil, syntaxHere(s, "expected entity type identifier")
	}
	if !s.matchKeyword("::") {
		return nil, syntaxHere(s, "expected '::' after entity type %q", typ)
	}
	idVal, ok := s.readStringLiteral()
	if !ok {
		return nil, syntaxHere(s, "expected quoted entity id after %q::", typ)
	}
	return &EntityRef{Type: typ, Id: idVal}, nil
}

func syntaxHere(s *scanner, format string, args ...any) *Diagnostic {
	line, col := s.posMark()
	return newDiagnostic(line, col, KindSyntax, format, args...)
}
