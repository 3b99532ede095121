package autoescape

import (
	"html"
	"strings"
)

// endOfAttrValue returns the offset of the end of the attribute value held
// in raw, or -1 if delim is DelimNone (not inside an attribute value at all).
// If the value's terminator does not appear in raw, it returns len(raw):
// the whole chunk is part of an as-yet-unterminated value.
func endOfAttrValue(raw string, delim Delim) int {
	switch delim {
	case DelimNone:
		return -1
	case DelimSpaceOrTagEnd:
		if i := strings.IndexAny(raw, " \t\n\v\f\r>"); i >= 0 {
			return i
		}
	default:
		if i := strings.IndexByte(raw, DelimText[delim][0]); i >= 0 {
			return i
		}
	}
	return len(raw)
}

// badUnquotedAttrChars lists the bytes that the HTML5 unquoted-attribute-
// value-state tokenization treats as parse errors: a template producing one
// of these inside an unquoted value is exploiting a difference between how
// various HTML parsers decide where the value ends, almost always by
// accident.
const badUnquotedAttrChars = "\x00\"'<=`"

// badUnquotedAttrChar reports the first disallowed byte in s, an unquoted
// attribute value (or its prefix up to the point scanned so far).
func badUnquotedAttrChar(s string) (string, bool) {
	if i := strings.IndexAny(s, badUnquotedAttrChars); i >= 0 {
		return s[i : i+1], true
	}
	return "", false
}

// unescapeHTML decodes HTML character references (&quot;, &#39;, ...) so
// that the CSS/JS sub-grammar rules can see the value's real content, e.g.
// so `onclick="alert(&quot;hi&quot;)"` is scanned as the JS string `"hi"`
// rather than the six literal characters `&quot;`.
func unescapeHTML(s string) string {
	return html.UnescapeString(s)
}

// escapeHTMLAttrDQ and escapeHTMLAttrSQ re-escape decoded, re-scanned
// attribute content for emission back into a double- or single-quoted HTML
// attribute: only the active quote character and '&' need protecting,
// since nothing else in an already-well-formed HTML attribute value is
// syntactically significant.
func escapeHTMLAttrDQ(s string) string { return escapeHTMLAttr(s, '"', "&#34;") }
func escapeHTMLAttrSQ(s string) string { return escapeHTMLAttr(s, '\'', "&#39;") }

func escapeHTMLAttr(s string, quote byte, quoteEscape string) string {
	if strings.IndexByte(s, quote) < 0 && strings.IndexByte(s, '&') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case quote:
			b.WriteString(quoteEscape)
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
