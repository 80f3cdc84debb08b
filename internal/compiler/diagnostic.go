package compiler

import "fmt"

// DiagnosticKind classifies a compilation failure.
type DiagnosticKind string

const (
	KindSyntax            DiagnosticKind = "syntax"
	KindUnknownEntityType  DiagnosticKind = "unknown_entity_type"
	KindTypeMismatch       DiagnosticKind = "type_mismatch"
)

// Diagnostic is a structured compilation error carrying a source position.
type Diagnostic struct {
	Line    int
	Column  int
	Kind    DiagnosticKind
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Kind, d.Message)
}

func newDiagnostic(line, col int, kind DiagnosticKind, format string, args ...any) *Diagnostic {
	return &Diagnostic{Line: line, Column: col, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
