package autoescape

import "fmt"

var stateNames = [...]string{
	StateText:              "text",
	StateRCData:            "rcdata",
	StateHTMLBeforeTagName: "htmlBeforeTagName",
	StateTagName:           "tagName",
	StateTag:               "tag",
	StateAttrName:          "attrName",
	StateAfterName:         "afterName",
	StateBeforeValue:       "beforeValue",
	StateAttr:              "attr",
	StateHTMLComment:       "htmlComment",
	StateCSS:               "css",
	StateCSSBlockComment:   "cssBlockComment",
	StateCSSLineComment:    "cssLineComment",
	StateCSSDqStr:          "cssDqStr",
	StateCSSSqStr:          "cssSqStr",
	StateCSSURL:            "cssURL",
	StateCSSSqURL:          "cssSqURL",
	StateCSSDqURL:          "cssDqURL",
	StateJS:                "js",
	StateJSBlockComment:    "jsBlockComment",
	StateJSLineComment:     "jsLineComment",
	StateJSDqStr:           "jsDqStr",
	StateJSSqStr:           "jsSqStr",
	StateJSRegexp:          "jsRegexp",
	StateURL:               "url",
	StateError:             "error",
}

var elementNames = [...]string{
	ElementNone:     "",
	ElementScript:   "script",
	ElementStyle:    "style",
	ElementListing:  "listing",
	ElementTextarea: "textarea",
	ElementTitle:    "title",
	ElementXMP:      "xmp",
	ElementClose:    "close",
}

var attrNames = [...]string{
	AttrNone:   "",
	AttrScript: "script",
	AttrStyle:  "style",
	AttrURL:    "url",
	AttrPlain:  "plain",
}

var delimNames = [...]string{
	DelimNone:          "",
	DelimDoubleQuote:   "\"",
	DelimSingleQuote:   "'",
	DelimSpaceOrTagEnd: "spaceOrTagEnd",
}

var urlPartNames = [...]string{
	URLPartNone:        "",
	URLPartPreQuery:    "preQuery",
	URLPartQueryOrFrag: "queryOrFrag",
	URLPartUnknown:     "unknown",
}

var jsCtxNames = [...]string{
	JSCtxRegex:   "regex",
	JSCtxDivOp:   "divOp",
	JSCtxUnknown: "unknown",
}

// contextString renders c as a compact diagnostic string, e.g.
// "{attrName attr=script}" or "{js element=script jsCtx=regex}".
// It is used by Context.String and by ContextUpdateFailure's error text; it
// is not meant to be parsed back.
func contextString(c Context) string {
	s := "{" + nameOrIndex(stateNames[:], int(c.State))
	if c.Element != ElementNone {
		s += " element=" + nameOrIndex(elementNames[:], int(c.Element))
	}
	if c.Attr != AttrNone {
		s += " attr=" + nameOrIndex(attrNames[:], int(c.Attr))
	}
	if c.Delim != DelimNone {
		s += " delim=" + nameOrIndex(delimNames[:], int(c.Delim))
	}
	if c.URLPart != URLPartNone {
		s += " urlPart=" + nameOrIndex(urlPartNames[:], int(c.URLPart))
	}
	if c.State == StateJS || c.State == StateJSDqStr || c.State == StateJSSqStr || c.State == StateJSRegexp {
		s += " jsCtx=" + nameOrIndex(jsCtxNames[:], int(c.JSCtx))
	}
	return s + "}"
}

// StateByName returns the State rendered by contextString as name (e.g.
// "js", "attrName", "cssDqStr"), for tools that accept a starting state
// as a command-line or config string. It reports ok=false for a name that
// doesn't match any state.
func StateByName(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return 0, false
}

func nameOrIndex(names []string, i int) string {
	if i >= 0 && i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("%d", i)
}
