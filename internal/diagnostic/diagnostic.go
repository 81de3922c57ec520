// Diagnostic reporting for the type-conformance checker.
// All checking functions report through a Sink instead of failing, so an
// analysis pass always completes and yields every diagnostic it can find.

package diagnostic

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/orizon-lang/ttcheck/internal/position"
)

// DiagnosticLevel represents the severity level of a diagnostic message.
type DiagnosticLevel int

const (
	DiagnosticError DiagnosticLevel = iota
	DiagnosticWarning
	DiagnosticInfo
)

func (dl DiagnosticLevel) String() string {
	switch dl {
	case DiagnosticError:
		return "error"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the level by name.
func (dl DiagnosticLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(dl.String())
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message"`
	Span    position.Span   `json:"-"`
	Where   string          `json:"where"`
	Level   DiagnosticLevel `json:"level"`
}

// String formats the diagnostic as "file:line:col: level: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span.String(), d.Level.String(), d.Message)
}

// Sink receives the diagnostics produced by the checker.
type Sink interface {
	ReportError(span position.Span, message string)
	ReportWarning(span position.Span, message string)
}

// DiagnosticBuilder helps construct diagnostic messages with fluent API.
type DiagnosticBuilder struct {
	diagnostic *Diagnostic
}

// NewDiagnostic creates a new diagnostic builder.
func NewDiagnostic() *DiagnosticBuilder {
	return &DiagnosticBuilder{diagnostic: &Diagnostic{}}
}

func (db *DiagnosticBuilder) Error() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticError

	return db
}

func (db *DiagnosticBuilder) Warning() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticWarning

	return db
}

func (db *DiagnosticBuilder) Info() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticInfo

	return db
}

func (db *DiagnosticBuilder) Code(code string) *DiagnosticBuilder {
	db.diagnostic.Code = code

	return db
}

func (db *DiagnosticBuilder) Message(message string) *DiagnosticBuilder {
	db.diagnostic.Message = message

	return db
}

func (db *DiagnosticBuilder) Span(span position.Span) *DiagnosticBuilder {
	db.diagnostic.Span = span
	db.diagnostic.Where = span.String()

	return db
}

func (db *DiagnosticBuilder) Build() *Diagnostic {
	return db.diagnostic
}

// DiagnosticEngine manages the collection and processing of diagnostics.
// It implements Sink.
type DiagnosticEngine struct {
	diagnostics []Diagnostic
	config      DiagnosticConfig
	truncated   bool
}

// DiagnosticConfig controls diagnostic behavior.
type DiagnosticConfig struct {
	MaxErrors        int
	WarningsAsErrors bool
}

// DefaultConfig returns the configuration used when nothing else is given.
func DefaultConfig() DiagnosticConfig {
	return DiagnosticConfig{MaxErrors: 100}
}

// NewDiagnosticEngine creates a new diagnostic engine.
func NewDiagnosticEngine(config DiagnosticConfig) *DiagnosticEngine {
	return &DiagnosticEngine{
		diagnostics: make([]Diagnostic, 0),
		config:      config,
	}
}

// ReportError implements Sink.
func (de *DiagnosticEngine) ReportError(span position.Span, message string) {
	de.AddDiagnostic(NewDiagnostic().Error().Span(span).Message(message).Build())
}

// ReportWarning implements Sink.
func (de *DiagnosticEngine) ReportWarning(span position.Span, message string) {
	de.AddDiagnostic(NewDiagnostic().Warning().Span(span).Message(message).Build())
}

// AddDiagnostic adds a diagnostic to the engine.
func (de *DiagnosticEngine) AddDiagnostic(diagnostic *Diagnostic) {
	if de.truncated {
		return
	}

	if de.config.WarningsAsErrors && diagnostic.Level == DiagnosticWarning {
		diagnostic.Level = DiagnosticError
	}

	de.diagnostics = append(de.diagnostics, *diagnostic)

	if de.config.MaxErrors > 0 && diagnostic.Level == DiagnosticError && len(de.GetErrors()) >= de.config.MaxErrors {
		truncation := NewDiagnostic().
			Info().
			Code("I0001").
			Message(fmt.Sprintf("Stopping after %d errors", de.config.MaxErrors)).
			Build()
		de.diagnostics = append(de.diagnostics, *truncation)
		de.truncated = true
	}
}

// GetDiagnostics returns all diagnostics.
func (de *DiagnosticEngine) GetDiagnostics() []Diagnostic {
	return de.diagnostics
}

// GetErrors returns only error-level diagnostics.
func (de *DiagnosticEngine) GetErrors() []Diagnostic {
	return de.filter(DiagnosticError)
}

// GetWarnings returns only warning-level diagnostics.
func (de *DiagnosticEngine) GetWarnings() []Diagnostic {
	return de.filter(DiagnosticWarning)
}

func (de *DiagnosticEngine) filter(level DiagnosticLevel) []Diagnostic {
	out := make([]Diagnostic, 0)
	for _, diag := range de.diagnostics {
		if diag.Level == level {
			out = append(out, diag)
		}
	}

	return out
}

// HasErrors returns true if there are any errors.
func (de *DiagnosticEngine) HasErrors() bool {
	return len(de.GetErrors()) > 0
}

// Clear removes all diagnostics.
func (de *DiagnosticEngine) Clear() {
	de.diagnostics = de.diagnostics[:0]
	de.truncated = false
}

// SortDiagnostics sorts diagnostics by position and severity.
func (de *DiagnosticEngine) SortDiagnostics() {
	sort.SliceStable(de.diagnostics, func(i, j int) bool {
		a, b := de.diagnostics[i], de.diagnostics[j]

		if a.Span.Start.Filename != b.Span.Start.Filename {
			return a.Span.Start.Filename < b.Span.Start.Filename
		}

		if a.Span.Start.Offset != b.Span.Start.Offset {
			return a.Span.Start.Offset < b.Span.Start.Offset
		}

		return a.Level < b.Level
	})
}

// FormatDiagnostics returns a formatted string representation of all diagnostics.
func (de *DiagnosticEngine) FormatDiagnostics() string {
	if len(de.diagnostics) == 0 {
		return ""
	}

	de.SortDiagnostics()

	var result strings.Builder
	for _, diag := range de.diagnostics {
		result.WriteString(diag.String())
		result.WriteString("\n")
	}

	result.WriteString(de.formatSummary())

	return result.String()
}

// formatSummary formats a summary of all diagnostics.
func (de *DiagnosticEngine) formatSummary() string {
	errorCount := len(de.GetErrors())
	warningCount := len(de.GetWarnings())

	if errorCount == 0 && warningCount == 0 {
		return "No issues found.\n"
	}

	var parts []string
	if errorCount > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", errorCount))
	}

	if warningCount > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", warningCount))
	}

	return fmt.Sprintf("Found %s.\n", strings.Join(parts, ", "))
}

// MarshalJSON renders the sorted diagnostics as a JSON array.
func (de *DiagnosticEngine) MarshalJSON() ([]byte, error) {
	de.SortDiagnostics()
	return json.Marshal(de.diagnostics)
}
