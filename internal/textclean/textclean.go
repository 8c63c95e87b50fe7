// Package textclean strips rich formatting from clipboard text before it is
// pasted.
package textclean

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	markupRE     = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
	rtfControlRE = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?`)
	rtfEscapeRE  = regexp.MustCompile(`\\'[0-9a-fA-F]{2}`)
	rtfParRE     = regexp.MustCompile(`\\par\b ?`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
	spaceRunRE   = regexp.MustCompile(`[ \t]+`)
)

// ToPlain returns s with RTF or HTML formatting removed. Text that carries
// neither is returned unchanged.
func ToPlain(s string) string {
	switch {
	case strings.HasPrefix(strings.TrimSpace(s), `{\rtf`):
		return StripRTF(s)
	case markupRE.MatchString(s):
		return StripHTML(s)
	}
	return s
}

// StripRTF removes control words, hex escapes, and group braces.
func StripRTF(s string) string {
	s = rtfParRE.ReplaceAllString(s, "\n")
	s = rtfEscapeRE.ReplaceAllString(s, "")
	s = rtfControlRE.ReplaceAllString(s, "")
	s = strings.NewReplacer("{", "", "}", "", `\`, "").Replace(s)
	return strings.TrimSpace(manyNewlines.ReplaceAllString(s, "\n\n"))
}

// StripHTML tokenizes s and keeps only its text. Block-level closing tags
// and <br> become newlines, script and style content is dropped, and
// entities are unescaped by the tokenizer.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			out := manyNewlines.ReplaceAllString(b.String(), "\n\n")
			return strings.TrimSpace(out)
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				skip++
			case atom.Br:
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			case atom.P, atom.Div, atom.Li, atom.Tr, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				b.WriteByte('\n')
			}
		}
	}
}

// NormalizeWhitespace collapses runs of spaces and tabs, trims every line,
// and limits consecutive blank lines to one.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRunRE.ReplaceAllString(l, " "))
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(manyNewlines.ReplaceAllString(s, "\n\n"))
}
