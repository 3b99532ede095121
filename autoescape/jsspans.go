package autoescape

import "strings"

// JSState reports whether s is one of the states whose tokens are actual
// JavaScript source (as opposed to a JS comment, which contributes no
// tokens an embedded JS parser needs to see).
func JSState(s State) bool {
	switch s {
	case StateJS, StateJSDqStr, StateJSSqStr, StateJSRegexp:
		return true
	}
	return false
}

// JSSpans runs the same token-by-token walk as ProcessRawTextUncached, but
// instead of building one normalized string it returns the normalized
// output broken into maximal runs of consecutive JS-source tokens
// (JSState true), dropping everything in between (markup, CSS, JS
// comments). It exists so external JavaScript tooling can validate just
// the spans this package believes are JavaScript, without also handing it
// surrounding HTML — see cmd/ctxlexweb's -validate-js flag.
func JSSpans(raw string, ctx Context) (spans []string, next Context, err error) {
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			spans = append(spans, cur.String())
			cur.Reset()
		}
	}
	// A token consumed in a JS state but landing in StateTag is a
	// "</script" close tag: markup, not script, despite the state it was
	// read from.
	emit := func(tokenState, nextState State, s string) {
		if JSState(tokenState) && nextState != StateTag {
			cur.WriteString(s)
		} else {
			flush()
		}
	}

	text, c := raw, ctx
	for text != "" {
		delim := c.Delim
		attrEnd := endOfAttrValue(text, delim)

		if attrEnd == -1 {
			n, next1, repl, failure := scan(text, c)
			if failure != nil {
				flush()
				return spans, ErrorContext, failure
			}
			emit(c.State, next1.State, repl)
			text, c = text[n:], next1
		} else {
			if delim == DelimSpaceOrTagEnd {
				if _, bad := badUnquotedAttrChar(text[:attrEnd]); bad {
					flush()
					return spans, ErrorContext, nil
				}
			}

			closeLen := -1
			if attrEnd < len(text) {
				closeLen = attrEnd + len(DelimText[delim])
			}

			tail := unescapeHTML(text[:attrEnd])
			for tail != "" {
				n, next1, repl, failure := scan(tail, c)
				if failure != nil {
					flush()
					return spans, ErrorContext, failure
				}
				emit(c.State, next1.State, repl)
				tail, c = tail[n:], next1
			}

			if closeLen != -1 {
				text = text[closeLen:]
				c = Context{State: StateTag, Element: c.Element}
			} else {
				text = ""
			}
		}

		if c.IsErrorContext() {
			flush()
			return spans, c, nil
		}
	}

	flush()
	return spans, c, nil
}
