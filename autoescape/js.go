package autoescape

// nextJSCtx classifies the JSCtx that should hold immediately after the
// given run of JavaScript operator/identifier/keyword characters, the
// standard "does a following slash start a regex or divide" heuristic
// used throughout the html/template lineage: a slash divides if the
// previous token could be the end of an expression (an identifier that
// isn't one of the keywords below, a number, a closing bracket, or a
// postfix ++/--); otherwise a slash starts a regex.
func nextJSCtx(s string) JSCtx {
	s = trimTrailingJSSpace(s)
	if s == "" {
		return JSCtxRegex
	}
	last := s[len(s)-1]
	switch last {
	case ')', ']':
		return JSCtxDivOp
	case '+', '-':
		if len(s) >= 2 && s[len(s)-2] == last {
			// ++ or -- act like a completed operand.
			return JSCtxDivOp
		}
		return JSCtxRegex
	case '"', '\'':
		return JSCtxDivOp
	}
	if isJSIdentChar(last) {
		word := trailingJSWord(s)
		if jsKeywordsPrecedingExpr[word] {
			return JSCtxRegex
		}
		return JSCtxDivOp
	}
	return JSCtxRegex
}

func isJSIdentChar(c byte) bool {
	return c == '_' || c == '$' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func isJSSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func trimTrailingJSSpace(s string) string {
	i := len(s)
	for i > 0 && isJSSpace(s[i-1]) {
		i--
	}
	return s[:i]
}

// trailingJSWord returns the maximal run of identifier characters ending
// at the end of s.
func trailingJSWord(s string) string {
	i := len(s)
	for i > 0 && isJSIdentChar(s[i-1]) {
		i--
	}
	return s[i:]
}

// jsKeywordsPrecedingExpr are the JS keywords after which a '/' begins a
// regular expression rather than dividing.
var jsKeywordsPrecedingExpr = map[string]bool{
	"break": true, "case": true, "continue": true, "delete": true,
	"do": true, "else": true, "in": true, "instanceof": true,
	"new": true, "of": true, "return": true, "throw": true,
	"typeof": true, "void": true, "yield": true,
}
