package autoescape

import (
	"regexp"
	"strings"
)

// This file assembles the per-state transition table. Every production is
// ported in meaning from the _TRANSITIONS table in the ported Python
// source's context_update.py: same rule families, same patterns (with \A
// translated to a literal ^, since Go's regexp anchors ^/$ to start/end of
// text exactly as \A/\Z do, without needing the (?m) flag), same ordering
// within a state (ties on match position are broken by list order).
//
// One exception from the source is called out below: stateCSSSqStr gets
// the trailing self-loop that the source's sibling stateCSSDqStr has and
// it does not, which otherwise causes an ERROR context on content that
// follows an otherwise well-formed CSS single-quoted string.

// endOfText matches only the zero-width position at the end of the
// remaining text, the Go equivalent of the Python source's bare r'\Z'
// transitions: since rawText defaults to the prefix through the match,
// matching at the end consumes everything remaining in one step.
var endOfText = regexp.MustCompile(`$`)

func anchored(pattern string) *regexp.Regexp {
	return regexp.MustCompile("^" + pattern)
}

func unanchored(pattern string) *regexp.Regexp {
	return regexp.MustCompile(pattern)
}

func selfRule(pattern *regexp.Regexp) *rule {
	return &rule{kind: ruleSelf, pattern: pattern}
}

func selfCustom(f func(string) (int, int, bool)) *rule {
	return &rule{kind: ruleSelf, custom: f}
}

// selfToEnd is the catch-all "consume everything remaining, context
// unchanged" rule present at the tail of most states' lists.
func selfToEnd() *rule {
	return selfRule(endOfText)
}

func normalize(r *rule, repl string, whole bool) *rule {
	cp := *r
	cp.normalize = true
	cp.repl = repl
	cp.replaceWhole = whole
	return &cp
}

func normalizeJSBlockComment(r *rule) *rule {
	cp := *r
	cp.normalize = true
	cp.replaceWhole = true
	cp.normalizeFunc = func(prefixThroughMatch string) string {
		if strings.ContainsAny(prefixThroughMatch, "\n\r  ") {
			return "\n"
		}
		return ""
	}
	return &cp
}

func toFixed(pattern *regexp.Regexp, state State) *rule {
	return &rule{kind: ruleToFixed, pattern: pattern, toState: state}
}

func toTag(pattern *regexp.Regexp, state State, element Element) *rule {
	return &rule{kind: ruleToTag, pattern: pattern, toState: state, toElement: element}
}

// withNegativeLookahead wraps r so it only applies when pattern does NOT
// match immediately after r's match. pattern is matched case-insensitively,
// matching the (?i) flag the ported source applies across the whole
// expression including its lookahead.
func withNegativeLookahead(r *rule, pattern string) *rule {
	cp := *r
	cp.lookahead = unanchored("(?i)^(?:" + pattern + ")")
	cp.lookaheadPositive = false
	return &cp
}

func tagDone(pattern *regexp.Regexp) *rule {
	return &rule{kind: ruleTagDone, pattern: pattern}
}

func backToTag(pattern *regexp.Regexp) *rule {
	return &rule{kind: ruleBackToTag, pattern: pattern}
}

func toAttrName(pattern *regexp.Regexp) *rule {
	return &rule{kind: ruleToAttrName, pattern: pattern}
}

func toAttrValue(pattern *regexp.Regexp, delim Delim) *rule {
	return &rule{kind: ruleToAttrValue, pattern: pattern, toDelim: delim}
}

func toState(pattern *regexp.Regexp, state State) *rule {
	return &rule{kind: ruleToState, pattern: pattern, toState: state}
}

func toJSString(pattern *regexp.Regexp, state State) *rule {
	return &rule{kind: ruleToJSString, pattern: pattern, toState: state}
}

func slashRule(pattern *regexp.Regexp) *rule {
	return &rule{kind: ruleSlash, pattern: pattern}
}

func jsPuncRule() *rule {
	return &rule{kind: ruleJSPunc, custom: jsPuncRun}
}

func urlPartRule(pattern *regexp.Regexp) *rule {
	return &rule{kind: ruleURLPart, pattern: pattern}
}

func cssURIRule(pattern *regexp.Regexp) *rule {
	return &rule{kind: ruleCSSURI, pattern: pattern}
}

func divPreceder(pattern *regexp.Regexp) *rule {
	return &rule{kind: ruleDivPreceder, pattern: pattern}
}

func endTag(pattern *regexp.Regexp) *rule {
	return &rule{kind: ruleEndTag, pattern: pattern}
}

func rcdataEndTag(pattern *regexp.Regexp) *rule {
	return &rule{kind: ruleRCDataEndTag, pattern: pattern}
}

// customZeroWidth builds a rule whose pattern is a pure lookahead
// assertion with no RE2 equivalent: it matches a zero-length token at
// position 0 iff test(text) holds. These port the source's r'\A(?=...)'
// and r'\A(?!...)' productions, which Go's regexp (no lookahead support at
// all) cannot express directly.
func customZeroWidth(test func(text string) bool) func(string) (int, int, bool) {
	return func(text string) (int, int, bool) {
		if test(text) {
			return 0, 0, true
		}
		return 0, 0, false
	}
}

func isHTMLSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

var (
	styleTagEnd  = endTag(unanchored(`(?i)<\/style\b`))
	scriptTagEnd = endTag(unanchored(`(?i)<\/script\b`))

	urlPartTransition    = urlPartRule(unanchored(`([?#])|$`))
	cssURLPartTransition = urlPartRule(unanchored(`([?#]|\\(?:23|3[fF]|[?#]))|$`))

	// slashGT recognizes the empty-unquoted-value lookahead: <input value=>.
	slashGT = regexp.MustCompile(`^/?>`)
)

// table maps each state to the ordered list of rules scan consults. It is
// built once at init time and never mutated afterward, so it may be
// shared across goroutines without synchronization.
var table [numStates][]*rule

func init() {
	table[StateText] = []*rule{
		selfRule(anchored(`[^<]+`)),
		normalize(toFixed(unanchored(`<!--`), StateHTMLComment), "", false),
		withNegativeLookahead(toTag(unanchored(`(?i)<script`), StateTag, ElementScript), `[a-z-]`),
		withNegativeLookahead(toTag(unanchored(`(?i)<style`), StateTag, ElementStyle), `[a-z-]`),
		withNegativeLookahead(toTag(unanchored(`(?i)<textarea`), StateTag, ElementTextarea), `[a-z-]`),
		withNegativeLookahead(toTag(unanchored(`(?i)<title`), StateTag, ElementTitle), `[a-z-]`),
		withNegativeLookahead(toTag(unanchored(`(?i)<xmp`), StateTag, ElementXMP), `[a-z-]`),
		normalize(withNegativeLookahead(selfRule(unanchored(`(?i)<`)), `(?:/?(?:[a-z]|$)|!doctype)`), "&lt;", false),
		toTag(unanchored(`</`), StateHTMLBeforeTagName, ElementClose),
		toFixed(unanchored(`<`), StateHTMLBeforeTagName),
	}

	table[StateRCData] = []*rule{
		rcdataEndTag(unanchored(`(?i)</([a-zA-Z-]+)`)),
		normalize(selfRule(unanchored(`<`)), "&lt;", false),
		selfToEnd(),
	}

	table[StateHTMLBeforeTagName] = []*rule{
		toTag(anchored(`[A-Za-z]+`), StateTagName, ElementNone),
		&rule{
			kind:    ruleToFixed,
			toState: StateText,
			custom:  customZeroWidth(func(text string) bool { return text == "" || !isASCIILetter(text[0]) }),
		},
	}

	table[StateTagName] = []*rule{
		selfRule(anchored(`[A-Za-z0-9:-]*(?:[A-Za-z0-9]|$)`)),
		&rule{
			kind: ruleToTag, toState: StateTag, toElement: ElementNone,
			custom: customZeroWidth(func(text string) bool {
				return text == "" || text[0] == '/' || text[0] == '>' || isHTMLSpace(text[0])
			}),
		},
	}

	table[StateTag] = []*rule{
		toAttrName(anchored(`\s*([A-Za-z][\w:-]*)`)),
		tagDone(anchored(`\s*/?>`)),
		selfRule(anchored(`\s+$`)),
	}

	table[StateAttrName] = []*rule{
		selfRule(unanchored(`[A-Za-z0-9-]+`)),
		toState(anchored(``), StateAfterName),
	}

	table[StateAfterName] = []*rule{
		toState(anchored(`\s*=`), StateBeforeValue),
		selfRule(anchored(`\s+`)),
		backToTag(anchored(``)),
	}

	table[StateBeforeValue] = []*rule{
		toAttrValue(anchored(`\s*["]`), DelimDoubleQuote),
		toAttrValue(anchored(`\s*[']`), DelimSingleQuote),
		&rule{
			kind:    ruleToAttrValue,
			toDelim: DelimSpaceOrTagEnd,
			custom: customZeroWidth(func(text string) bool {
				if text == "" {
					return false
				}
				c := text[0]
				switch c {
				case '=', '"', '\'', '`', '>':
					return false
				}
				return !isHTMLSpace(c)
			}),
		},
		normalize(&rule{
			kind:   ruleBackToTag,
			custom: customZeroWidth(func(text string) bool { return slashGT.MatchString(text) }),
		}, `""`, false),
		selfRule(anchored(`\s+`)),
	}

	table[StateHTMLComment] = []*rule{
		normalize(toFixed(unanchored(`-->`), StateText), "", true),
		normalize(selfToEnd(), "", true),
	}

	table[StateAttr] = []*rule{
		selfToEnd(),
	}

	table[StateCSS] = []*rule{
		normalize(toState(unanchored(`/\*`), StateCSSBlockComment), " ", false),
		normalize(toState(unanchored(`//`), StateCSSLineComment), "", false),
		toState(unanchored(`["]`), StateCSSDqStr),
		toState(unanchored(`[']`), StateCSSSqStr),
		cssURIRule(unanchored(`(?i)\burl\s*\(\s*(["']?)`)),
		styleTagEnd,
		selfToEnd(),
	}

	table[StateCSSBlockComment] = []*rule{
		normalize(toState(unanchored(`\*/`), StateCSS), "", true),
		normalize(styleTagEnd, "</style", true),
		normalize(selfToEnd(), "", true),
	}

	table[StateCSSLineComment] = []*rule{
		normalize(toState(unanchored(`[\n\f\r]`), StateCSS), "\n", true),
		normalize(styleTagEnd, "</style", true),
		normalize(selfToEnd(), "", true),
	}

	table[StateCSSDqStr] = []*rule{
		toState(unanchored(`["]`), StateCSS),
		selfRule(unanchored(`\\(?:\r\n?|[\n\f"])`)),
		cssURLPartTransition,
		toFixed(unanchored(`[\n\r\f]`), StateError),
		styleTagEnd,
		selfToEnd(),
	}

	table[StateCSSSqStr] = []*rule{
		toState(unanchored(`[']`), StateCSS),
		selfRule(unanchored(`\\(?:\r\n?|[\n\f'])`)),
		cssURLPartTransition,
		toFixed(unanchored(`[\n\r\f]`), StateError),
		styleTagEnd,
		// The source's sibling list (stateCSSDqStr above) ends with a
		// catch-all self-loop; this one doesn't, which can strand content
		// following an otherwise valid single-quoted CSS string in ERROR.
		// Mirrored here with the fix, per the known upstream gap.
		selfToEnd(),
	}

	table[StateCSSURL] = []*rule{
		toState(unanchored(`[\\)\s]`), StateCSS),
		cssURLPartTransition,
		toFixed(unanchored(`["']`), StateError),
		styleTagEnd,
	}

	table[StateCSSSqURL] = []*rule{
		toState(unanchored(`[']`), StateCSS),
		cssURLPartTransition,
		selfRule(unanchored(`\\(?:\r\n?|[\n\f'])`)),
		toFixed(unanchored(`[\n\r\f]`), StateError),
		styleTagEnd,
	}

	table[StateCSSDqURL] = []*rule{
		toState(unanchored(`["]`), StateCSS),
		cssURLPartTransition,
		selfRule(unanchored(`\\(?:\r\n?|[\n\f"])`)),
		toFixed(unanchored(`[\n\r\f]`), StateError),
		styleTagEnd,
	}

	table[StateJS] = []*rule{
		normalize(toState(unanchored(`/\*`), StateJSBlockComment), " ", false),
		normalize(toState(unanchored(`//`), StateJSLineComment), "", false),
		toJSString(unanchored(`["]`), StateJSDqStr),
		toJSString(unanchored(`[']`), StateJSSqStr),
		slashRule(unanchored(`/`)),
		jsPuncRule(),
		selfRule(unanchored(`\s+`)),
		scriptTagEnd,
	}

	table[StateJSBlockComment] = []*rule{
		normalizeJSBlockComment(toState(unanchored(`\*/`), StateJS)),
		normalize(scriptTagEnd, "</script", true),
		normalizeJSBlockComment(selfToEnd()),
	}

	table[StateJSLineComment] = []*rule{
		normalize(toState(unanchored("[\n\r  ]"), StateJS), "\n", true),
		normalize(scriptTagEnd, "</script", true),
		normalize(selfToEnd(), "", true),
	}

	table[StateJSDqStr] = []*rule{
		divPreceder(unanchored(`["]`)),
		scriptTagEnd,
		selfCustom(jsDqStringRun),
	}

	table[StateJSSqStr] = []*rule{
		divPreceder(unanchored(`[']`)),
		scriptTagEnd,
		selfCustom(jsSqStringRun),
	}

	table[StateJSRegexp] = []*rule{
		divPreceder(unanchored(`/`)),
		scriptTagEnd,
		selfCustom(jsRegexRun),
	}

	table[StateURL] = []*rule{
		urlPartTransition,
	}
}
