// Package naming provides the string transforms used to derive TypeScript
// identifiers from OpenAPI names: Pascal/camel casing, path-derived names,
// enum labels and identifier sanitization. Every function is pure.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words splits s on every rune that is not a letter or a digit.
// Example: "/users/{userId}/posts" -> ["users", "userId", "posts"]
func Words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ToPascalCase upper-cases the first letter of every word and joins the words.
// The rest of each word is kept as written.
// Example: "first_name" -> "FirstName"
// Example: "userId" -> "UserId"
func ToPascalCase(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	// cases.Caser keeps state between calls and must not be shared.
	caser := cases.Title(language.Und, cases.NoLower)

	var b strings.Builder
	b.Grow(len(s))
	for _, w := range words {
		runes := []rune(w)
		b.WriteString(caser.String(string(runes[0])))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}

// ToCamelCase is ToPascalCase with the first letter lower-cased.
// Example: "first_name" -> "firstName"
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if pascal == "" {
		return ""
	}
	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// PathName derives a type-name prefix from a path template.
// Example: "/users/{userId}/posts" -> "UsersUserIdPosts"
func PathName(path string) string {
	return ToPascalCase(path)
}

// EnumLabel turns an enum literal into a member label: upper-cased, every run
// of non-alphanumeric runes replaced by one underscore.
// Example: "a.b" -> "A_B"
// Example: "c-d" -> "C_D"
func EnumLabel(value string) string {
	upper := cases.Upper(language.Und).String(value)

	var b strings.Builder
	b.Grow(len(upper))
	inRun := false
	for _, r := range upper {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			b.WriteByte('_')
			inRun = true
		}
	}
	label := b.String()
	if label == "" {
		return "EMPTY"
	}
	if unicode.IsDigit([]rune(label)[0]) {
		return "_" + label
	}
	return label
}

// IsIdentifier reports whether s can be used as a bare TypeScript identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`break case catch class const continue debugger default delete do
		else enum export extends false finally for function if import in instanceof new null
		return super switch this throw true try typeof var void while with
		as implements interface let package private protected public static yield
		any boolean number string symbol type from of await async arguments eval undefined`) {
		reservedWords[w] = struct{}{}
	}
}

// IsReserved reports whether s is a TypeScript reserved word or a name that
// cannot bind a function parameter.
func IsReserved(s string) bool {
	_, ok := reservedWords[s]
	return ok
}

// TypeName returns name unchanged when it is a valid identifier, otherwise its
// Pascal-cased form (prefixed with '_' when it starts with a digit).
// Example: "api.v1.User" -> "ApiV1User"
func TypeName(name string) string {
	if IsIdentifier(name) {
		return name
	}
	return guardDigit(ToPascalCase(name))
}

// FuncName returns name unchanged when it is a valid identifier, otherwise its
// camel-cased form (prefixed with '_' when it starts with a digit).
// Example: "list-users" -> "listUsers"
func FuncName(name string) string {
	if IsIdentifier(name) {
		return name
	}
	return guardDigit(ToCamelCase(name))
}

func guardDigit(s string) string {
	if s == "" {
		return "_"
	}
	if unicode.IsDigit([]rune(s)[0]) {
		return "_" + s
	}
	return s
}
