package autoescape

// ContextUnion returns a context consistent with both a and b, for use when
// two execution paths rejoin — for example the then- and else-branches of a
// conditional in the surrounding template. It returns ErrorContext if no
// such context exists.
//
// Two contexts that differ only in JSCtx or only in URLPart unify to
// JSCtxUnknown or URLPartUnknown respectively, since a consumer downstream
// of the branch point cannot know which branch was taken. Contexts that
// differ by one being "nudged" further along an epsilon transition than the
// other (e.g. one branch left an attribute value unquoted-but-empty while
// the other is mid-way through starting it) are reconciled by forcing both
// through ForceEpsilonTransition before retrying.
func ContextUnion(a, b Context) Context {
	if a == b {
		return a
	}

	bWithAJSCtx := b
	bWithAJSCtx.JSCtx = a.JSCtx
	if a == bWithAJSCtx {
		r := a
		r.JSCtx = JSCtxUnknown
		return r
	}

	bWithAURLPart := b
	bWithAURLPart.URLPart = a.URLPart
	if a == bWithAURLPart {
		r := a
		r.URLPart = URLPartUnknown
		return r
	}

	na, nb := ForceEpsilonTransition(a), ForceEpsilonTransition(b)
	if a != na || b != nb {
		return ContextUnion(na, nb)
	}

	return ErrorContext
}
