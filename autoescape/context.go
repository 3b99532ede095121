// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package autoescape tracks the HTML/CSS/JS lexical context of template
// text so that a surrounding template engine can choose the right escaping
// for each dynamically-substituted value. Adapted from html/template's
// context-propagation algorithm, by way of the Closure Templates
// implementation that gave us the rule table this package ports.
package autoescape

// State is the primary lexical mode: which of HTML, CSS or JS grammar
// (and which sub-production of it) governs the next bytes of input.
type State int

const (
	StateText State = iota
	StateRCData
	StateHTMLBeforeTagName
	StateTagName
	StateTag
	StateAttrName
	StateAfterName
	StateBeforeValue
	StateAttr
	StateHTMLComment
	StateCSS
	StateCSSBlockComment
	StateCSSLineComment
	StateCSSDqStr
	StateCSSSqStr
	StateCSSURL
	StateCSSSqURL
	StateCSSDqURL
	StateJS
	StateJSBlockComment
	StateJSLineComment
	StateJSDqStr
	StateJSSqStr
	StateJSRegexp
	StateURL
	StateError
	numStates
)

// Element identifies the enclosing special HTML element, if any, whose
// body uses non-default tokenization rules (RCDATA, raw text, or a CSS/JS
// embedded grammar).
type Element int

const (
	ElementNone Element = iota
	ElementScript
	ElementStyle
	ElementListing
	ElementTextarea
	ElementTitle
	ElementXMP
	ElementClose
)

// AttrKind is the content-kind of the attribute currently being scanned,
// computed from its name.
type AttrKind int

const (
	AttrNone AttrKind = iota
	AttrScript
	AttrStyle
	AttrURL
	AttrPlain
)

// Delim is the delimiter of the current attribute value; DelimNone outside
// of an attribute value.
type Delim int

const (
	DelimNone Delim = iota
	DelimDoubleQuote
	DelimSingleQuote
	DelimSpaceOrTagEnd
)

// DelimText maps each Delim to the literal text that closes it.
// DelimSpaceOrTagEnd has no single closing literal; it is terminated by
// whitespace or '>', neither of which is consumed as part of the value.
var DelimText = [...]string{
	DelimNone:          "",
	DelimDoubleQuote:   `"`,
	DelimSingleQuote:   "'",
	DelimSpaceOrTagEnd: "",
}

// URLPart is the position within a hierarchical URL attribute value.
type URLPart int

const (
	URLPartNone URLPart = iota
	URLPartPreQuery
	URLPartQueryOrFrag
	URLPartUnknown
)

// JSCtx records whether the next '/' in JavaScript begins a regular
// expression literal or is a division operator.
type JSCtx int

const (
	JSCtxRegex JSCtx = iota
	JSCtxDivOp
	JSCtxUnknown
)

// Context is the packed lexical state of the combined HTML/CSS/JS lexer at
// a point in a template. It is a plain value: copyable, comparable, and
// usable as a map key.
type Context struct {
	State   State
	Element Element
	Attr    AttrKind
	Delim   Delim
	URLPart URLPart
	JSCtx   JSCtx
}

// ErrorContext is the distinguished absorbing context returned whenever no
// transition rule applies to the input.
var ErrorContext = Context{State: StateError}

// IsErrorContext reports whether c is the absorbing error state.
func (c Context) IsErrorContext() bool {
	return c.State == StateError
}

// String renders c for diagnostics. See debug.go.
func (c Context) String() string {
	return contextString(c)
}

// tagBodyState maps the enclosing element to the state its body is
// tokenized in once the opening tag is done.
var tagBodyState = [...]State{
	ElementNone:     StateText,
	ElementScript:   StateJS,
	ElementStyle:    StateCSS,
	ElementListing:  StateRCData,
	ElementTextarea: StateRCData,
	ElementTitle:    StateRCData,
	ElementXMP:      StateRCData,
}

// attrStartStates maps an attribute kind to the state entered when an
// unquoted or newly-opened value begins.
var attrStartStates = [...]State{
	AttrNone:   StateAttr,
	AttrScript: StateJS,
	AttrStyle:  StateCSS,
	AttrURL:    StateURL,
	AttrPlain:  StateAttr,
}

// AfterAttrDelimiter returns the context appropriate to entering an
// attribute value of the given kind, opened with the given delimiter, on
// behalf of the given enclosing element.
func AfterAttrDelimiter(element Element, attr AttrKind, delim Delim) Context {
	c := Context{Element: element, Attr: attr, Delim: delim, State: attrStartStates[attr]}
	switch attr {
	case AttrScript:
		c.JSCtx = JSCtxRegex
	case AttrURL:
		c.URLPart = URLPartNone
	}
	return c
}

// ForceEpsilonTransition applies any rule that matches the empty string in
// c's state, returning the resulting context, or c unchanged if no such
// rule applies. It bridges "nudged" states — for example
//
//	<a href=
//
// ends in context{StateBeforeValue, AttrURL}, but parsing one extra rune
//
//	<a href=x
//
// ends in context{StateURL, AttrURL, DelimSpaceOrTagEnd}. There are two transitions
// that happen when the 'x' is seen: (1) an epsilon transition from a
// before-value state to a start-of-value state, then (2) consuming 'x' and
// advancing past the first value character. ForceEpsilonTransition produces
// the context after (1) alone, which is what ContextUnion needs to compare
// branches that may or may not have seen that first character yet.
//
// The StateAttrName and StateAfterName cases below are literal ports: each
// table row's own unconditional, lookahead-free empty-string rule nudges
// one into the other (StateAttrName into StateAfterName, StateAfterName
// back to StateTag), so forcing them here matches table.go exactly — one
// step at a time, same as the table; ContextUnion supplies the repetition
// needed to walk the whole chain. StateBeforeValue has no such
// unconditional rule — every rule in its table row requires either a
// consumed character or a satisfied lookahead, so a strict empty-string
// probe would leave it unchanged. Its case below instead nudges it forward
// optimistically (see DESIGN.md), matching the same assumption
// `<p title={{if .C}}{{.}}{{end}}>` makes: that a branch which hasn't
// produced a value yet will end up agreeing with one that has already
// started an unquoted value.
//
// StateTag has no case here. It would also lack a grounded unconditional
// rule to model, and — unlike StateBeforeValue's nudge, which only ever
// joins against states further along the same attribute value — forcing
// StateTag forward would overshoot past StateTag itself: ContextUnion
// reapplies ForceEpsilonTransition to both sides on every recursive round,
// so a StateTag input would keep advancing toward StateAttrName instead of
// settling once StateAfterName's one-step nudge has already landed on
// StateTag.
func ForceEpsilonTransition(c Context) Context {
	switch c.State {
	case StateBeforeValue:
		// In `<foo bar={{.}}`, the action is an undelimited value.
		c = AfterAttrDelimiter(c.Element, c.Attr, DelimSpaceOrTagEnd)
	case StateAttrName:
		// In `<foo bar{{.}}`, the attribute name may already be complete;
		// the table's own rule for this state nudges forward to look for
		// '=' or the next attribute on the unconditional empty string.
		c.State, c.URLPart = StateAfterName, URLPartNone
	case StateAfterName:
		// In `<foo bar {{.}}`, the name is done and no '=' has been seen
		// yet; the table's own backToTag rule for this state fires
		// unconditionally on the empty string, landing back in the tag
		// body with everything but Element cleared — match it exactly
		// rather than advancing into an attribute name that may never
		// have started.
		c = Context{State: StateTag, Element: c.Element}
	}
	return c
}

// isComment reports whether s is one of the states entered inside an HTML,
// CSS or JS comment.
func isComment(s State) bool {
	switch s {
	case StateHTMLComment, StateCSSBlockComment, StateCSSLineComment,
		StateJSBlockComment, StateJSLineComment:
		return true
	}
	return false
}
