package autoescape

import (
	"strings"

	"github.com/robfig/soyctx/autoescape/errtype"
)

// ProcessRawTextUncached computes the context after a chunk of raw
// HTML/CSS/JS template text, along with that text normalized for safe
// reassembly: HTML comments are elided, a stray '<' is entity-escaped,
// unquoted attribute values are quoted, and content inside attribute
// values is HTML-entity-decoded before being re-scanned in its embedded
// grammar (so `onclick="f(&quot;x&quot;)"` is tokenized as JS, not as
// literal ampersand-escapes) and re-escaped on the way back out.
//
// It returns a non-nil error only when a token is genuinely ambiguous (a
// '/' in JavaScript that could open a regular expression or divide) or an
// unquoted attribute value contains a disallowed character (NUL, a quote,
// '<', '=' or '`'): those cases can't be resolved by more context, so they
// are reported immediately and normalized/errContext/errSuffix are
// meaningless.
//
// If instead the text simply contains a construct outside the grammar this
// package understands (an unterminated quote, a misplaced token), err is
// nil but next is ErrorContext; errContext and errSuffix then hold the
// last good context and the unconsumed input that produced the error, for
// building a diagnostic, and normalized is "".
func ProcessRawTextUncached(raw string, ctx Context) (next Context, normalized string, errContext Context, errSuffix string, err error) {
	if ctx.IsErrorContext() {
		// ERROR was already the input, not a transition into it this call:
		// report it as a no-op rather than as a fresh failure with no prior
		// context to point to.
		return ctx, raw, Context{}, "", nil
	}

	var out strings.Builder
	text, c := raw, ctx

	for text != "" {
		priorContext, priorText := c, text

		delim := c.Delim
		attrEnd := endOfAttrValue(text, delim)

		if attrEnd == -1 {
			// Outside an attribute value: no decoding needed.
			n, next1, repl, failure := scan(text, c)
			if failure != nil {
				return ErrorContext, "", Context{}, "", failure
			}
			text, c = text[n:], next1
			out.WriteString(repl)
			if c.Delim == DelimSpaceOrTagEnd {
				// Entering an unquoted value: introduce the opening quote
				// the normalized output always wraps such values in.
				out.WriteByte('"')
			}
		} else {
			if delim == DelimSpaceOrTagEnd {
				if bad, ok := badUnquotedAttrChar(text[:attrEnd]); ok {
					return ErrorContext, "", Context{}, "", &errtype.ContextUpdateFailure{
						Code: errtype.ErrBadUnquotedChar,
						Msg:  "'" + bad + "' in unquoted attribute value: " + text[:attrEnd],
					}
				}
			}

			closeLen := -1
			if attrEnd < len(text) {
				closeLen = attrEnd + len(DelimText[delim])
			}

			escaper := escapeHTMLAttrDQ
			if delim == DelimSingleQuote {
				escaper = escapeHTMLAttrSQ
			}

			tail := unescapeHTML(text[:attrEnd])
			for tail != "" {
				n, next1, repl, failure := scan(tail, c)
				if failure != nil {
					return ErrorContext, "", Context{}, "", failure
				}
				tail, c = tail[n:], next1
				out.WriteString(escaper(repl))
			}

			if closeLen != -1 {
				text = text[closeLen:]
				// On exiting an attribute, discard everything but state
				// and element: the next token is read in the tag body.
				c = Context{State: StateTag, Element: c.Element}
				if delim == DelimSingleQuote {
					out.WriteByte('\'')
				} else {
					out.WriteByte('"')
				}
			} else {
				text = ""
			}
		}

		if c.IsErrorContext() {
			return c, "", priorContext, priorText, nil
		}
	}

	return c, out.String(), Context{}, "", nil
}
