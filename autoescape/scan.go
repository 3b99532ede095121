package autoescape

import "github.com/robfig/soyctx/autoescape/errtype"

// scan locates the earliest transition rule applicable to ctx that matches
// somewhere in text, fires it, and reports how much of text it consumed,
// the context after that token, and the normalized replacement text to
// emit in its place.
//
// If ctx is already the absorbing error context, scan consumes all of text
// unchanged: the error state is infectious. If no rule matches anywhere in
// text, the remainder is consumed into ErrorContext — the grammar has no
// production for it. If the winning rule reports a ContextUpdateFailure (an
// ambiguous '/' in JavaScript is the only such case in this table), scan
// stops at that rule's match and returns the failure for the caller to
// surface.
//
// Ties among rules matching at the same earliest position are broken by
// their order in the state's rule list.
//
// scan panics if a rule fires having consumed zero bytes while leaving the
// state unchanged: every zero-width rule in the table changes state (or
// the table is missing a production), so that combination means a bug in
// the table, not a malformed input.
func scan(text string, ctx Context) (n int, next Context, replacement string, failure *errtype.ContextUpdateFailure) {
	if ctx.IsErrorContext() {
		return len(text), ctx, text, nil
	}

	var (
		bestStart = len(text) + 1
		bestRule  *rule
		bestMatch match
	)
	for _, r := range table[ctx.State] {
		m, ok := r.find(text)
		if !ok {
			continue
		}
		if m.start < bestStart && r.applicable(ctx, text, m) {
			bestStart = m.start
			bestRule = r
			bestMatch = m
		}
	}

	if bestRule == nil {
		return len(text), ErrorContext, text, nil
	}

	next, failure = bestRule.nextContext(ctx, text, bestMatch)
	if failure != nil {
		return bestMatch.end, ErrorContext, text[:bestMatch.end], failure
	}

	n = bestMatch.end
	replacement = bestRule.rawText(text, bestMatch)

	if n == 0 && next.State == ctx.State {
		panic("autoescape: no progress scanning " + ctx.String() + ": " + text)
	}
	return n, next, replacement, nil
}
