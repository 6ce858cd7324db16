// Package tableref parses and formats table reference strings.
//
// A reference addresses a table (and optionally one of its columns) across
// sheet and file boundaries:
//
//	[[file]:][sheet!]table[[column]]
//
// so "'My File':'Sheet 1'!'Table A'[Col 1]" addresses column "Col 1" of
// table "Table A" on sheet "Sheet 1" of file "My File", while "Table A"
// addresses a table in the current scope. The literal "@" stands for the
// current scope and collapses to an absent component, so "@:Table A" is
// the same address as "Table A".
package tableref

import (
	"regexp"
	"strings"
)

// Ref is a parsed table reference. An empty field means the component was
// not given (or was the "@" current-scope marker). A quoted "'@'" survives
// as the literal name "@".
type Ref struct {
	FilePath   string
	SheetName  string
	TableName  string
	ColumnName string
}

// The address grammar. Order inside each alternation matters: the bare-name
// character class would otherwise swallow an opening quote. The file prefix
// must be quoted (or "@") because a bare name cannot contain ':'.
const (
	quotedPart = `'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`
	namePart   = quotedPart + `|[^'!:"\[\]]+`
)

var refPattern = regexp.MustCompile(
	`^(?:(@|` + quotedPart + `):)?` +
		`(?:(` + namePart + `)!)?` +
		`(` + namePart + `)?` +
		`(?:\[([^\]]*)\])?$`,
)

// Parse parses a reference string. It never fails: input that does not
// match the address grammar yields the zero Ref, which a subsequent table
// lookup resolves to "no such table".
func Parse(identifier string) Ref {
	m := refPattern.FindStringSubmatch(identifier)
	if m == nil {
		return Ref{}
	}
	return Ref{
		FilePath:   normalize(m[1]),
		SheetName:  normalize(m[2]),
		TableName:  normalize(m[3]),
		ColumnName: m[4],
	}
}

// normalize strips one pair of surrounding quotes and collapses the
// current-scope marker. The "@" check happens before unquoting so that a
// deliberately quoted "'@'" stays a literal name.
func normalize(part string) string {
	if part == "@" {
		return ""
	}
	return unquote(part)
}

func unquote(part string) string {
	if len(part) < 2 {
		return part
	}
	q := part[0]
	if (q != '\'' && q != '"') || part[len(part)-1] != q {
		return part
	}
	inner := part[1 : len(part)-1]
	if !strings.Contains(inner, `\`) {
		return inner
	}
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

// String formats the reference back into address syntax. Parse(r.String())
// reproduces r for any combination of present/absent components, provided
// the column name contains no ']' (the grammar gives columns no quoting).
func (r Ref) String() string {
	var b strings.Builder
	if r.FilePath != "" {
		b.WriteString(quote(r.FilePath))
		b.WriteByte(':')
	}
	if r.SheetName != "" {
		b.WriteString(quoteIfNeeded(r.SheetName))
		b.WriteByte('!')
	}
	if r.TableName != "" {
		b.WriteString(quoteIfNeeded(r.TableName))
	}
	if r.ColumnName != "" {
		b.WriteByte('[')
		b.WriteString(r.ColumnName)
		b.WriteByte(']')
	}
	return b.String()
}

// IsZero reports whether no component is present.
func (r Ref) IsZero() bool {
	return r == Ref{}
}

// quote wraps a name in single quotes, escaping backslashes and quotes.
func quote(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(name); i++ {
		if name[i] == '\'' || name[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(name[i])
	}
	b.WriteByte('\'')
	return b.String()
}

// quoteIfNeeded leaves plain names bare. A name needs quoting when it uses
// a character the bare grammar excludes, or when it would read as the
// current-scope marker.
func quoteIfNeeded(name string) string {
	if name == "@" || strings.ContainsAny(name, `'!:"[]`) {
		return quote(name)
	}
	return name
}
