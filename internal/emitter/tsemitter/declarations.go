package tsemitter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/resolve"
)

// EmitDeclarations renders every registry entry in registration order,
// separated by one blank line.
func EmitDeclarations(reg *resolve.Registry) string {
	var blocks []string
	for _, s := range reg.All() {
		blocks = append(blocks, declaration(s))
	}
	return strings.Join(blocks, "\n\n")
}

func declaration(s *resolve.Schema) string {
	var b strings.Builder
	notes, rest := splitDescription(s.Description)
	writeComment(&b, rest)

	name := naming.TypeName(s.Name)
	switch s.Kind {
	case resolve.KindEnum:
		fmt.Fprintf(&b, "export enum %s {\n", name)
		labels := map[string]int{}
		for _, v := range s.EnumValues {
			label, literal := enumMember(v)
			labels[label]++
			if n := labels[label]; n > 1 {
				label = fmt.Sprintf("%s_%d", label, n)
			}
			fmt.Fprintf(&b, "\t%s = %s,\n", label, literal)
		}
		b.WriteString("}")
	case resolve.KindArray:
		fmt.Fprintf(&b, "export interface %s extends Array<%s> {\n}", name, TypeOf(s.Items))
	case resolve.KindAlias:
		fmt.Fprintf(&b, "export type %s = %s", name, withNull(s.Alias))
	default:
		fmt.Fprintf(&b, "export interface %s {\n", name)
		for field, p := range s.Properties.All() {
			b.WriteString("\t")
			b.WriteString(propertyName(field))
			if !s.Required[field] || p.Optional {
				b.WriteString("?")
			}
			b.WriteString(": ")
			b.WriteString(withNull(p))
			b.WriteString(",")
			note := p.Description
			if note == "" {
				note = notes[field]
			}
			if note = flatten(note); note != "" {
				b.WriteString(" // ")
				b.WriteString(note)
			}
			b.WriteString("\n")
		}
		b.WriteString("}")
	}
	return b.String()
}

func withNull(p *resolve.Property) string {
	t := TypeOf(p)
	if p != nil && p.Nullable {
		return t + " | null"
	}
	return t
}

// propertyName camel-cases a field name, quoting it when the result is not a
// bare identifier.
func propertyName(field string) string {
	camel := naming.ToCamelCase(field)
	if camel == "" {
		return quote(field)
	}
	if !naming.IsIdentifier(camel) {
		return quote(camel)
	}
	return camel
}

// enumMember returns the member label and the literal for an enum value.
// Strings and booleans are quoted, numbers are bare.
func enumMember(v any) (label, literal string) {
	switch t := v.(type) {
	case string:
		return naming.EnumLabel(t), quote(t)
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return naming.EnumLabel(s), s
	case int, int64, uint64:
		s := fmt.Sprint(t)
		return naming.EnumLabel(s), s
	default:
		s := fmt.Sprint(t)
		return naming.EnumLabel(s), quote(s)
	}
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

func quote(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

// fieldNote matches "`field`: text" lines in a schema description; any dash
// may stand in for the colon.
var fieldNote = regexp.MustCompile("^\\s*(?:[-*•]\\s*)?`([^`]+)`\\s*(?:—|–|-|:)\\s*(.+?)\\s*$")

// splitDescription separates per-field bullets from the rest of a description.
func splitDescription(desc string) (notes map[string]string, rest string) {
	notes = map[string]string{}
	var kept []string
	for _, line := range strings.Split(strings.ReplaceAll(desc, "\r\n", "\n"), "\n") {
		if m := fieldNote.FindStringSubmatch(line); m != nil {
			notes[m[1]] = m[2]
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	return notes, strings.TrimSpace(strings.Join(kept, "\n"))
}

// writeComment emits text as a block comment when it spans lines, else as a
// line comment.
func writeComment(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	text = strings.ReplaceAll(text, "*/", "*\\/")
	if !strings.Contains(text, "\n") {
		b.WriteString("// ")
		b.WriteString(text)
		b.WriteString("\n")
		return
	}
	b.WriteString("/**\n")
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.WriteString(" *\n")
			continue
		}
		b.WriteString(" * ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(" */\n")
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
