package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/lipgloss"

	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

var (
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Result is a single-message result. Created via Output.Result().
type Result struct {
	out     *Output
	meta    Meta
	message string
	details map[string]any
}

// With adds a detail key-value pair.
func (r *Result) With(key string, value any) *Result {
	r.details[key] = value
	return r
}

// Render outputs the result in the configured format.
func (r *Result) Render() error {
	return r.out.Render(r)
}

func (r *Result) Meta() Meta {
	return r.meta
}

// RenderText writes the message and details, with detail keys sorted.
func (r *Result) RenderText(w io.Writer) error {
	if _, err := fmt.Fprintln(w, okStyle.Render(r.message)); err != nil {
		return err
	}
	return writeDetails(w, r.details)
}

func (r *Result) RenderJSON() any {
	result := make(map[string]any, len(r.details)+1)
	result["message"] = r.message
	for k, v := range r.details {
		result[toJSONKey(k)] = v
	}
	return result
}

func (r *Result) RenderMarkdown(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "**%s**\n\n", r.message); err != nil {
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(r.details)) {
		if _, err := fmt.Fprintf(w, "- **%s:** %s\n", k, formatMarkdownValue(r.details[k])); err != nil {
			return err
		}
	}
	return nil
}

func writeDetails(w io.Writer, details map[string]any) error {
	keys := slices.Sorted(maps.Keys(details))
	width := 0
	for _, k := range keys {
		width = max(width, len(k)+1)
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "  %-*s  %v\n", width, k+":", details[k]); err != nil {
			return err
		}
	}
	return nil
}

// Error is a structured error result. Created via Output.Error(). The error
// kind is used as the code unless one is set.
type Error struct {
	out     *Output
	meta    Meta
	err     error
	code    string
	details map[string]any
}

// WithCode sets an error code.
func (e *Error) WithCode(code string) *Error {
	e.code = code
	return e
}

// With adds a detail key-value pair.
func (e *Error) With(key string, value any) *Error {
	e.details[key] = value
	return e
}

func (e *Error) Render() error {
	return e.out.Render(e)
}

func (e *Error) Meta() Meta {
	return e.meta
}

func (e *Error) codeOrKind() string {
	if e.code != "" {
		return e.code
	}
	if k := idberrors.KindOf(e.err); k != idberrors.KindUnknown {
		return k.String()
	}
	return ""
}

func (e *Error) RenderText(w io.Writer) error {
	label := "Error"
	if code := e.codeOrKind(); code != "" {
		label = fmt.Sprintf("Error [%s]", code)
	}
	if _, err := fmt.Fprintf(w, "%s %v\n", errStyle.Render(label+":"), e.err); err != nil {
		return err
	}
	return writeDetails(w, e.details)
}

func (e *Error) RenderJSON() any {
	result := map[string]any{"error": e.err.Error()}
	if code := e.codeOrKind(); code != "" {
		result["code"] = code
	}
	for k, v := range e.details {
		result[toJSONKey(k)] = v
	}
	return result
}

func (e *Error) RenderMarkdown(w io.Writer) error {
	label := "Error"
	if code := e.codeOrKind(); code != "" {
		label = fmt.Sprintf("Error [%s]", code)
	}
	if _, err := fmt.Fprintf(w, "> **%s:** %v\n", label, e.err); err != nil {
		return err
	}
	if len(e.details) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		for _, k := range slices.Sorted(maps.Keys(e.details)) {
			if _, err := fmt.Fprintf(w, "- %s: %v\n", k, e.details[k]); err != nil {
				return err
			}
		}
	}
	return nil
}
