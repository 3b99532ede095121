package autoescape

import "regexp"

// ruleKind names one of the families of transition behavior a rule may
// have. Each family supplies its own nextContext/rawText behavior;
// dispatch is centralized in nextContext (transition.go) and rawText below
// rather than via an interface, since the rule set is closed and small.
type ruleKind int

const (
	ruleToFixed      ruleKind = iota // transition to a fixed context
	ruleToTag                        // transition to a fixed (state, element) pair
	ruleTagDone                      // '>' or '/>' seen; leave the tag
	ruleBackToTag                    // attribute finished with no value; back to STATE_TAG
	ruleToAttrName                   // an attribute name was seen
	ruleToAttrValue                  // the opening delimiter of an attribute value was seen
	ruleToState                      // transition to a fixed state, preserving the rest of the context
	ruleToJSString                   // open a JS string literal
	ruleSlash                        // a '/' was seen in JS; is it a regex, a comment, or division?
	ruleJSPunc                       // a run of JS operator/identifier characters
	ruleURLPart                      // advance the URL-part cursor within a URL attribute value
	ruleCSSURI                       // CSS "url(" was seen
	ruleDivPreceder                  // the text scanned precedes a '/' that is a division operator
	ruleSelf                         // stay in the current context
	ruleEndTag                       // a privileged closing tag (</script> or </style>) was seen
	ruleRCDataEndTag                 // the closing tag for the current RCDATA element was seen
)

// rule is one entry of a per-state transition table. A rule matches the
// earliest occurrence of pattern in the remaining text; see scan in
// scan.go for the tie-breaking and dispatch algorithm.
type rule struct {
	kind ruleKind

	// pattern is searched for unanchored, unless it begins with ^, which
	// anchors the match to the start of the (ever-shrinking) remaining
	// text, exactly as \A does in the ported source.
	pattern *regexp.Regexp

	// custom, if non-nil, replaces pattern-based matching entirely. It is
	// used for the handful of rules whose original regular expression
	// relied on lookahead inside a repetition, which RE2 cannot express.
	// It returns the [start,end) of the earliest applicable match, or
	// ok=false if the rule does not apply anywhere in text.
	custom func(text string) (start, end int, ok bool)

	// lookahead, if non-nil, is matched against text[matchEnd:]; the rule
	// only applies if the match outcome equals lookaheadPositive.
	lookahead         *regexp.Regexp
	lookaheadPositive bool

	// toState/toElement/toAttr/toDelim/toURLPart/toJSCtx parameterize the
	// ruleToFixed/ruleToTag/ruleToAttrValue/ruleToState families.
	toState   State
	toElement Element
	toAttr    AttrKind
	toDelim   Delim
	toURLPart URLPart
	toJSCtx   JSCtx

	// normalize, if set, makes repl override the emitted text for this rule
	// the way _NormalizeTransition does in the ported source: the default
	// raw text is the entire input prefix up to the match's end; a
	// normalizing rule instead emits either repl alone (replaceWhole) or
	// the prefix before the match followed by repl (repl may be empty).
	normalize    bool
	replaceWhole bool
	repl         string

	// normalizeFunc, if set, computes repl dynamically from the input
	// prefix through the match end, overriding repl/replaceWhole. It
	// exists for the one production (a JS block comment closing, or
	// running off the end of the chunk) whose replacement depends on
	// whether a line terminator was swallowed.
	normalizeFunc func(prefixThroughMatch string) string
}

// match is the outcome of locating a rule's earliest occurrence in text.
type match struct {
	start, end int
	groups     []int // submatch indices from pattern, or nil for custom/lookahead-only rules
}

// find locates r's earliest match in text, or returns ok=false.
func (r *rule) find(text string) (m match, ok bool) {
	if r.custom != nil {
		start, end, found := r.custom(text)
		if !found {
			return match{}, false
		}
		return match{start: start, end: end}, true
	}
	loc := r.pattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return match{}, false
	}
	return match{start: loc[0], end: loc[1], groups: loc}, true
}

// applicable reports whether r, having matched m in text under context c,
// should actually fire. It implements the lookahead assertions that the
// ported source expresses inline with (?=...)/(?!...), plus any
// kind-specific predicate (an RCDATA close tag must name the element
// currently open; a privileged end tag only applies outside of an
// attribute value).
func (r *rule) applicable(c Context, text string, m match) bool {
	if r.lookahead != nil {
		matched := r.lookahead.MatchString(text[m.end:])
		if matched != r.lookaheadPositive {
			return false
		}
	}
	switch r.kind {
	case ruleRCDataEndTag:
		if len(m.groups) < 4 {
			return false
		}
		name := text[m.groups[2]:m.groups[3]]
		return elementName(c.Element) != "" && equalFold(name, elementName(c.Element))
	case ruleEndTag:
		return c.Attr == AttrNone
	}
	return true
}

// rawText computes the text to emit to the normalized output for a fired
// rule, given the full remaining text and the chosen match.
func (r *rule) rawText(text string, m match) string {
	if !r.normalize {
		return text[:m.end]
	}
	if r.normalizeFunc != nil {
		return r.normalizeFunc(text[:m.end])
	}
	if r.replaceWhole {
		return r.repl
	}
	return text[:m.start] + r.repl
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
