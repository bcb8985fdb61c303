package diag

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"pythia/pkg/source"
)

// Tag identifies a diagnostic category. The set is closed: every diagnostic
// the engine can emit carries exactly one of these tags, and tests match on
// them rather than on message text.
type Tag string

const (
	UnsupportedOperator       Tag = "unsupported-operator"
	DivisionByZero            Tag = "division-by-zero"
	NoMatchingOverload        Tag = "no-matching-overload"
	InvalidArgumentType       Tag = "invalid-argument-type"
	MissingArgument           Tag = "missing-argument"
	TooManyPositionalArgs     Tag = "too-many-positional-arguments"
	UnknownArgument           Tag = "unknown-argument"
	ParameterAlreadyAssigned  Tag = "parameter-already-assigned"
	PossiblyUnresolvedRef     Tag = "possibly-unresolved-reference"
	PossiblyUnboundImport     Tag = "possibly-unbound-import"
	UnresolvedImport          Tag = "unresolved-import"
	UnresolvedReference       Tag = "unresolved-reference"
	UnresolvedAttribute       Tag = "unresolved-attribute"
	InvalidAssignment         Tag = "invalid-assignment"
	InvalidTypeGuardDef       Tag = "invalid-type-guard-definition"
	InvalidTypeGuardCall      Tag = "invalid-type-guard-call"
	UnsupportedBoolConversion Tag = "unsupported-bool-conversion"
	StaticAssertError         Tag = "static-assert-error"
	RevealedType              Tag = "revealed-type"
)

// Severity of a diagnostic. Info is used only by the reveal_type surface.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// Diagnostic is one reported finding, pinned to a source span.
type Diagnostic struct {
	Tag      Tag
	Severity Severity
	Span     source.Span
	Msg      string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", d.Tag, d.Span.Line, d.Span.Column, d.Msg)
}

// Sink collects diagnostics during a check pass. Emitting never aborts
// analysis; callers inspect the sink once the pass completes.
type Sink struct {
	diags []*Diagnostic
}

func NewSink() *Sink {
	return &Sink{}
}

// Add records a diagnostic.
func (s *Sink) Add(tag Tag, sev Severity, span source.Span, format string, args ...interface{}) {
	s.diags = append(s.diags, &Diagnostic{
		Tag:      tag,
		Severity: sev,
		Span:     span,
		Msg:      fmt.Sprintf(format, args...),
	})
}

// Errorf records an error-severity diagnostic.
func (s *Sink) Errorf(tag Tag, span source.Span, format string, args ...interface{}) {
	s.Add(tag, Error, span, format, args...)
}

// Warnf records a warning-severity diagnostic.
func (s *Sink) Warnf(tag Tag, span source.Span, format string, args ...interface{}) {
	s.Add(tag, Warning, span, format, args...)
}

// Truncate drops diagnostics recorded after the first n; used to discard
// the partial results of a cancelled pass.
func (s *Sink) Truncate(n int) {
	if n >= 0 && n < len(s.diags) {
		s.diags = s.diags[:n]
	}
}

// All returns every collected diagnostic in emission order.
func (s *Sink) All() []*Diagnostic {
	return s.diags
}

// ByTag returns the diagnostics carrying the given tag.
func (s *Sink) ByTag(tag Tag) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range s.diags {
		if d.Tag == tag {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any error-severity diagnostic was emitted.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Err folds all error-severity diagnostics into a single error value, or nil.
func (s *Sink) Err() error {
	var err error
	for _, d := range s.diags {
		if d.Severity == Error {
			err = multierr.Append(err, d)
		}
	}
	return err
}

// Display prints diagnostics to stderr with the offending source line and a
// position marker, when the span carries a file.
func Display(diags []*Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s\n", d.Error())
		if d.Span.File == nil {
			continue
		}
		lines := d.Span.File.Lines()
		lineIdx := d.Span.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			continue
		}
		srcLine := strings.TrimRight(lines[lineIdx], "\r\n\t ")
		fmt.Fprintf(os.Stderr, "  %s\n", srcLine)
		if d.Span.Column > 0 {
			fmt.Fprintf(os.Stderr, "  %s^\n", strings.Repeat(" ", d.Span.Column-1))
		}
	}
}
