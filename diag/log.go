package diag

import (
	"fmt"
	"strings"
)

// Severity is the level of a diagnostic message.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the severity label used in formatted messages.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// Span is a source location. The zero value means unknown.
type Span struct {
	Line   int
	Column int
}

// IsZero reports whether the span carries no location.
func (s Span) IsZero() bool { return s.Line == 0 }

// String formats the span as line:column.
func (s Span) String() string { return fmt.Sprintf("%d:%d", s.Line, s.Column) }

// Message is a single diagnostic.
type Message struct {
	Severity Severity
	Code     Code
	Span     Span

	// Source names the fragment the message refers to, if known.
	Source string

	Text string
}

// Error implements the error interface.
func (m *Message) Error() string {
	var sb strings.Builder
	if m.Source != "" {
		sb.WriteString(m.Source)
		if !m.Span.IsZero() {
			fmt.Fprintf(&sb, ":%s", m.Span)
		}
		sb.WriteString(": ")
	} else if !m.Span.IsZero() {
		fmt.Fprintf(&sb, "%s: ", m.Span)
	}
	fmt.Fprintf(&sb, "%s %s: %s", m.Severity, m.Code, m.Text)
	return sb.String()
}

// Is matches the category sentinel of the message code.
func (m *Message) Is(target error) bool {
	return target == m.Code.Category().sentinel()
}

// Errors is a list of error messages usable as a single error.
type Errors []*Message

// Error implements the error interface.
func (el Errors) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// Unwrap exposes the individual messages to errors.Is and errors.As.
func (el Errors) Unwrap() []error {
	errs := make([]error, len(el))
	for i, m := range el {
		errs[i] = m
	}
	return errs
}

// Log accumulates diagnostics. The zero value is ready to use.
// A Log is not safe for concurrent use.
type Log struct {
	messages []*Message
	errors   int
}

// NewLog returns an empty log.
func NewLog() *Log { return &Log{} }

// Add records a message.
func (l *Log) Add(m *Message) {
	l.messages = append(l.messages, m)
	if m.Severity == SeverityError {
		l.errors++
	}
}

// Error records an error message.
func (l *Log) Error(code Code, span Span, format string, args ...any) {
	l.Add(&Message{Severity: SeverityError, Code: code, Span: span, Text: fmt.Sprintf(format, args...)})
}

// Warning records a warning message.
func (l *Log) Warning(code Code, span Span, format string, args ...any) {
	l.Add(&Message{Severity: SeverityWarning, Code: code, Span: span, Text: fmt.Sprintf(format, args...)})
}

// Info records an informational message.
func (l *Log) Info(code Code, span Span, format string, args ...any) {
	l.Add(&Message{Severity: SeverityInfo, Code: code, Span: span, Text: fmt.Sprintf(format, args...)})
}

// Append copies all messages of other into l. A nil other is ignored.
func (l *Log) Append(other *Log) {
	if other == nil || other == l {
		return
	}
	for _, m := range other.messages {
		l.Add(m)
	}
}

// HasErrors reports whether at least one error was recorded.
func (l *Log) HasErrors() bool { return l != nil && l.errors > 0 }

// Len returns the number of recorded messages.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.messages)
}

// Messages returns the recorded messages in insertion order.
func (l *Log) Messages() []*Message {
	if l == nil {
		return nil
	}
	return l.messages
}

// Errors returns the error-level messages.
func (l *Log) Errors() Errors {
	if l == nil {
		return nil
	}
	var out Errors
	for _, m := range l.messages {
		if m.Severity == SeverityError {
			out = append(out, m)
		}
	}
	return out
}

// Has reports whether a message with the given code was recorded.
func (l *Log) Has(code Code) bool {
	if l == nil {
		return false
	}
	for _, m := range l.messages {
		if m.Code == code {
			return true
		}
	}
	return false
}

// Err returns the recorded errors as a single error, or nil.
func (l *Log) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return l.Errors()
}

// FormatAll returns every message, one per line.
func (l *Log) FormatAll() string {
	if l == nil {
		return ""
	}
	var sb strings.Builder
	for i, m := range l.messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.Error())
	}
	return sb.String()
}
