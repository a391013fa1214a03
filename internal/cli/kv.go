package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var keyStyle = lipgloss.NewStyle().Bold(true)

// KV renders ordered key-value pairs. Created via Output.KV().
type KV struct {
	out   *Output
	meta  Meta
	pairs []kvPair
}

type kvPair struct {
	key   string
	value any
}

// Set adds a key-value pair. Value can be any type.
func (k *KV) Set(key string, value any) *KV {
	k.pairs = append(k.pairs, kvPair{key: key, value: value})
	return k
}

// Render outputs the key-value pairs in the configured format.
func (k *KV) Render() error {
	return k.out.Render(k)
}

func (k *KV) Meta() Meta {
	return k.meta
}

// RenderText writes aligned "key: value" lines.
func (k *KV) RenderText(w io.Writer) error {
	width := 0
	for _, p := range k.pairs {
		width = max(width, lipgloss.Width(p.key)+1)
	}
	pad := keyStyle.Width(width + 1)
	for _, p := range k.pairs {
		if _, err := fmt.Fprintf(w, "%s%v\n", pad.Render(p.key+":"), p.value); err != nil {
			return err
		}
	}
	return nil
}

// RenderJSON returns the data as an object.
func (k *KV) RenderJSON() any {
	result := make(map[string]any, len(k.pairs))
	for _, p := range k.pairs {
		result[toJSONKey(p.key)] = p.value
	}
	return result
}

// RenderMarkdown writes key-value pairs as a definition-style list.
func (k *KV) RenderMarkdown(w io.Writer) error {
	for _, p := range k.pairs {
		if _, err := fmt.Fprintf(w, "**%s:** %s\n\n", p.key, formatMarkdownValue(p.value)); err != nil {
			return err
		}
	}
	return nil
}

// formatMarkdownValue wraps udids and paths in backticks.
func formatMarkdownValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if looksLikeIdentifier(s) {
		return "`" + s + "`"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// looksLikeIdentifier reports whether s is a udid, uuid or path.
func looksLikeIdentifier(s string) bool {
	if strings.HasPrefix(s, "/") {
		return true
	}
	if len(s) < 16 {
		return false
	}
	for _, c := range s {
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex && c != '-' {
			return false
		}
	}
	return true
}

// Lines renders a plain list of strings, one per line.
type Lines struct {
	out   *Output
	meta  Meta
	items []string
}

// Add appends items.
func (l *Lines) Add(items ...string) *Lines {
	l.items = append(l.items, items...)
	return l
}

func (l *Lines) Render() error { return l.out.Render(l) }

func (l *Lines) Meta() Meta { return l.meta }

func (l *Lines) RenderText(w io.Writer) error {
	for _, item := range l.items {
		if _, err := fmt.Fprintln(w, item); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lines) RenderJSON() any {
	if l.items == nil {
		return []string{}
	}
	return l.items
}

func (l *Lines) RenderMarkdown(w io.Writer) error {
	for _, item := range l.items {
		if _, err := fmt.Fprintf(w, "- %s\n", formatMarkdownValue(item)); err != nil {
			return err
		}
	}
	return nil
}
