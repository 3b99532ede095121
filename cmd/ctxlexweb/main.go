// Command ctxlexweb is a development server for exercising the autoescape
// package against a directory of fixture files.
//
// Invoke it like so:
//
//	go run ./cmd/ctxlexweb -dir fragments
//
// Each "*.frag" file under -dir holds a chunk of raw HTML/CSS/JS template
// text, optionally preceded by a "#!ctx <state>" directive naming the
// state to start scanning in (default "text"; see autoescape.StateByName
// for the recognized names). ctxlexweb processes every fragment, serves
// the resulting context transition and normalized output at
// /frag/<name>, and reprocesses a fragment whenever its file changes on
// disk.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"html"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/robertkrimen/otto/parser"

	"github.com/robfig/soyctx/autoescape"
)

var (
	dir        = flag.String("dir", "fragments", "directory of *.frag fixture files to watch and serve")
	addr       = flag.String("addr", ":8812", "address to listen on")
	validateJS = flag.Bool("validate-js", false, "parse every JS-state span of each fragment's normalized output with otto/parser and report syntax errors")
)

// Logger mirrors the teacher's package-level Logger: a development tool
// prints its own errors rather than propagating them to a caller.
var Logger = log.New(os.Stderr, "[ctxlexweb] ", 0)

func main() {
	flag.Parse()

	srv := &server{dir: *dir, results: make(map[string]*result)}
	if err := srv.loadAll(); err != nil {
		Logger.Fatal(err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		Logger.Fatal(err)
	}
	if err := watcher.Add(*dir); err != nil {
		Logger.Fatal(err)
	}
	go srv.watch(watcher)

	http.HandleFunc("/", srv.handleIndex)
	http.HandleFunc("/frag/", srv.handleFragment)
	fmt.Printf("ctxlexweb listening on %s, serving %s\n", *addr, *dir)
	Logger.Fatal(http.ListenAndServe(*addr, nil))
}

// fragment is one *.frag fixture file: a starting context plus the raw
// text to process from it.
type fragment struct {
	name string
	path string
	ctx  autoescape.Context
	raw  string
}

// result is a fragment's processed output, recomputed each time the file
// changes.
type result struct {
	frag       fragment
	next       autoescape.Context
	normalized string
	errContext autoescape.Context
	errSuffix  string
	err        error
	jsSpans    []string
	jsErrors   []string
}

type server struct {
	dir string

	mu      sync.RWMutex
	results map[string]*result
}

func (s *server) loadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".frag") {
			continue
		}
		if err := s.reloadLocked(e.Name()); err != nil {
			Logger.Printf("%s: %v", e.Name(), err)
		}
	}
	return nil
}

func (s *server) reloadLocked(name string) error {
	path := filepath.Join(s.dir, name)
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	frag := parseFragment(name, path, string(content))
	s.results[name] = s.process(frag)
	return nil
}

func (s *server) process(frag fragment) *result {
	r := &result{frag: frag}
	r.next, r.normalized, r.errContext, r.errSuffix, r.err = autoescape.ProcessRawText(frag.raw, frag.ctx)
	if r.err != nil || !*validateJS {
		return r
	}
	spans, _, err := autoescape.JSSpans(frag.raw, frag.ctx)
	if err != nil {
		r.jsErrors = append(r.jsErrors, err.Error())
		return r
	}
	r.jsSpans = spans
	for i, span := range spans {
		if _, perr := parser.ParseFile(nil, fmt.Sprintf("%s#js%d", frag.name, i), span, 0); perr != nil {
			r.jsErrors = append(r.jsErrors, fmt.Sprintf("span %d: %v", i, perr))
		}
	}
	return r
}

// parseFragment splits off a leading "#!ctx <state>" directive, if
// present, and returns the remaining text as the fragment's raw content.
func parseFragment(name, path, content string) fragment {
	ctx := autoescape.Context{State: autoescape.StateText}
	rest := content
	if strings.HasPrefix(content, "#!ctx") {
		nl := strings.IndexByte(content, '\n')
		if nl < 0 {
			nl = len(content)
		}
		directive := strings.TrimSpace(strings.TrimPrefix(content[:nl], "#!ctx"))
		if st, ok := autoescape.StateByName(directive); ok {
			ctx = autoescape.Context{State: st}
		} else if directive != "" {
			Logger.Printf("%s: unrecognized starting state %q, using text", name, directive)
		}
		if nl < len(content) {
			rest = content[nl+1:]
		} else {
			rest = ""
		}
	}
	return fragment{name: name, path: path, ctx: ctx, raw: rest}
}

func (s *server) watch(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".frag") {
				continue
			}
			s.mu.Lock()
			err := s.reloadLocked(name)
			s.mu.Unlock()
			if err != nil {
				Logger.Printf("%s: %v", name, err)
				continue
			}
			Logger.Printf("reloaded %s", name)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			Logger.Println(err)
		}
	}
}

func (s *server) handleIndex(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	s.mu.RLock()
	names := make([]string, 0, len(s.results))
	for name := range s.results {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteString("<!doctype html><title>ctxlexweb</title><ul>")
	for _, name := range names {
		fmt.Fprintf(&buf, `<li><a href="/frag/%s">%s</a></li>`, html.EscapeString(name), html.EscapeString(name))
	}
	buf.WriteString("</ul>")
	w.Write(buf.Bytes())
}

func (s *server) handleFragment(w http.ResponseWriter, req *http.Request) {
	name := strings.TrimPrefix(req.URL.Path, "/frag/")
	s.mu.RLock()
	r, ok := s.results[name]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, req)
		return
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!doctype html><title>%s</title>", html.EscapeString(name))
	fmt.Fprintf(&buf, "<h1>%s</h1>", html.EscapeString(name))
	fmt.Fprintf(&buf, "<p>start: %s</p>", html.EscapeString(r.frag.ctx.String()))
	fmt.Fprintf(&buf, "<p>raw:</p><pre>%s</pre>", html.EscapeString(r.frag.raw))

	if r.err != nil {
		fmt.Fprintf(&buf, "<p>error: %s</p>", html.EscapeString(r.err.Error()))
	} else if r.next.IsErrorContext() {
		fmt.Fprintf(&buf, "<p>no rule matched from context %s, remaining: </p><pre>%s</pre>",
			html.EscapeString(r.errContext.String()), html.EscapeString(r.errSuffix))
	} else {
		fmt.Fprintf(&buf, "<p>end: %s</p>", html.EscapeString(r.next.String()))
		fmt.Fprintf(&buf, "<p>normalized:</p><pre>%s</pre>", html.EscapeString(r.normalized))
	}

	if *validateJS {
		if len(r.jsErrors) == 0 {
			fmt.Fprintf(&buf, "<p>js: %d span(s), all parsed cleanly</p>", len(r.jsSpans))
		} else {
			buf.WriteString("<p>js errors:</p><ul>")
			for _, e := range r.jsErrors {
				fmt.Fprintf(&buf, "<li>%s</li>", html.EscapeString(e))
			}
			buf.WriteString("</ul>")
		}
	}

	w.Write(buf.Bytes())
}
