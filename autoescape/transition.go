package autoescape

import (
	"strings"

	"github.com/robfig/soyctx/autoescape/errtype"
)

// elementName returns the lower-case tag name associated with e, or "" if e
// does not correspond to a single named element (ElementNone, ElementClose).
func elementName(e Element) string {
	switch e {
	case ElementScript:
		return "script"
	case ElementStyle:
		return "style"
	case ElementListing:
		return "listing"
	case ElementTextarea:
		return "textarea"
	case ElementTitle:
		return "title"
	case ElementXMP:
		return "xmp"
	}
	return ""
}

// attrKindForName classifies an attribute by name into the content kind
// that governs how its value is tokenized and escaped. Event handler
// attributes (onclick, onload, ...) hold script; style holds CSS; the URL
// attributes listed below hold a URL or URL-like value; everything else is
// plain text.
func attrKindForName(name string) AttrKind {
	name = strings.ToLower(name)
	if name == "style" {
		return AttrStyle
	}
	if strings.HasPrefix(name, "on") {
		return AttrScript
	}
	switch name {
	case "src", "href", "action", "formaction", "cite", "data", "poster",
		"background", "longdesc", "usemap", "manifest", "profile",
		"classid", "codebase", "archive", "icon", "xmlns", "ping", "to":
		return AttrURL
	}
	return AttrPlain
}

// nextContext computes the context after rule r fires on match m within
// text, given the context c it fired in. It returns a non-nil failure only
// for an ambiguous '/' in JavaScript (the other ContextUpdateFailure case, a
// disallowed character in an unquoted attribute value, is detected by the
// driver) or, as an internal error, for an unhandled rule kind; the caller
// (scan, and ultimately ProcessRawTextUncached) is responsible for
// surfacing it.
func (r *rule) nextContext(c Context, text string, m match) (Context, *errtype.ContextUpdateFailure) {
	switch r.kind {
	case ruleToFixed:
		return Context{State: r.toState}, nil

	case ruleToTag:
		return Context{State: r.toState, Element: r.toElement}, nil

	case ruleTagDone:
		// By the time a tag reaches here its Element has already been
		// narrowed to ElementNone unless one of the few recognized
		// special-element rules in StateText set it directly, so this
		// also covers closing tags (tagBodyState[ElementNone] == StateText).
		next := Context{State: tagBodyState[c.Element], Element: c.Element}
		if next.State == StateJS {
			next.JSCtx = JSCtxRegex
		}
		return next, nil

	case ruleBackToTag:
		return Context{State: StateTag, Element: c.Element}, nil

	case ruleToAttrName:
		name := ""
		if len(m.groups) >= 4 && m.groups[2] >= 0 {
			name = text[m.groups[2]:m.groups[3]]
		}
		next := Context{State: StateAttrName, Element: c.Element, Attr: c.Attr}
		// Only a script/style/URL classification overrides the prior kind;
		// an unrecognized name leaves it as-is.
		if k := attrKindForName(name); k != AttrPlain {
			next.Attr = k
		}
		return next, nil

	case ruleToAttrValue:
		return AfterAttrDelimiter(c.Element, c.Attr, r.toDelim), nil

	case ruleToState:
		next := c
		next.State = r.toState
		next.URLPart = URLPartNone
		return next, nil

	case ruleToJSString:
		return Context{Element: c.Element, Attr: c.Attr, Delim: c.Delim, State: r.toState}, nil

	case ruleSlash:
		switch c.JSCtx {
		case JSCtxRegex:
			next := c
			next.State = StateJSRegexp
			return next, nil
		case JSCtxDivOp:
			next := c
			next.State = StateJS
			next.JSCtx = JSCtxRegex
			return next, nil
		default:
			return ErrorContext, &errtype.ContextUpdateFailure{
				Code: errtype.ErrSlashAmbiguous,
				Msg:  "'/' after an ambiguous token could start a regular expression or be a division operator; rewrite to make the preceding expression unambiguous",
			}
		}

	case ruleJSPunc:
		next := c
		next.State = StateJS
		next.JSCtx = nextJSCtx(text[m.start:m.end])
		return next, nil

	case ruleURLPart:
		next := c
		if next.URLPart == URLPartNone && strings.TrimSpace(text[:m.end]) != "" {
			next.URLPart = URLPartPreQuery
		}
		groupMatched := len(m.groups) >= 4 && m.groups[2] >= 0
		if next.URLPart != URLPartQueryOrFrag && groupMatched {
			next.URLPart = URLPartQueryOrFrag
		}
		return next, nil

	case ruleCSSURI:
		quote := ""
		if len(m.groups) >= 4 && m.groups[2] >= 0 {
			quote = text[m.groups[2]:m.groups[3]]
		}
		next := c
		switch quote {
		case "'":
			next.State = StateCSSSqURL
		case "\"":
			next.State = StateCSSDqURL
		default:
			next.State = StateCSSURL
		}
		next.URLPart = URLPartNone
		return next, nil

	case ruleDivPreceder:
		next := c
		next.State = StateJS
		next.JSCtx = JSCtxDivOp
		return next, nil

	case ruleSelf:
		return c, nil

	case ruleEndTag, ruleRCDataEndTag:
		// The match already consumed the tag name ("</script", "</title",
		// ...), so we land directly in the tag body looking for attributes
		// or the closing '>', not back in HTML_BEFORE_TAG_NAME.
		return Context{State: StateTag, Element: ElementNone}, nil
	}
	return ErrorContext, &errtype.ContextUpdateFailure{Code: errtype.ErrInternal, Msg: "unhandled rule kind"}
}
