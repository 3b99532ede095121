// Package msgcatalog renders autoescape/errtype.ContextUpdateFailure
// diagnostics in a caller-selected locale, loading translations from
// gettext .po catalogs the way github.com/robfig/soy/soymsg/pomsg loads
// Soy message bundles: one .po file per locale, tried in order of
// decreasing specificity when the exact locale isn't present.
package msgcatalog

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"strings"

	"github.com/robfig/gettext/po"
	"golang.org/x/text/language"

	"github.com/robfig/soyctx/autoescape/errtype"
)

// headline is the canonical English wording for each failure code. It
// doubles as the msgid a .po catalog's entries are matched against, so a
// translator's PO editor shows it as the string to translate.
var headline = map[errtype.Code]string{
	errtype.ErrSlashAmbiguous:  "ambiguous '/' in JavaScript",
	errtype.ErrBadUnquotedChar: "disallowed character in unquoted attribute value",
	errtype.ErrPartialEscape:   "incomplete expression inside attribute value",
	errtype.ErrInternal:        "internal error in context lexer",
}

var msgidToCode = func() map[string]errtype.Code {
	m := make(map[string]errtype.Code, len(headline))
	for code, id := range headline {
		m[id] = code
	}
	return m
}()

// Catalog renders context-update failures in a requested locale, falling
// back to the built-in English wording when the locale is unknown or
// lacks a translation for the failure's code.
type Catalog interface {
	// Render formats f for display, preferring locale's translation of
	// f.Code's headline over the English default. The position (if set on
	// f) and f.Msg's token-specific detail are always included verbatim;
	// only the leading headline is localized.
	Render(locale string, f *errtype.ContextUpdateFailure) string
}

// FileOpener abstracts opening the .po file for a locale. Open returns a
// nil ReadCloser (and nil error) if no file exists for that locale.
type FileOpener interface {
	Open(locale string) (io.ReadCloser, error)
}

type fsOpener struct{ dir string }

func (o fsOpener) Open(locale string) (io.ReadCloser, error) {
	f, err := os.Open(path.Join(o.dir, locale+".po"))
	switch {
	case os.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, err
	default:
		return f, nil
	}
}

// Dir returns a Catalog loading every "<locale>.po" file found directly
// under dirname.
func Dir(dirname string) (Catalog, error) {
	entries, err := ioutil.ReadDir(dirname)
	if err != nil {
		return nil, err
	}
	var locales []string
	for _, fi := range entries {
		if name := fi.Name(); !fi.IsDir() && strings.HasSuffix(name, ".po") {
			locales = append(locales, strings.TrimSuffix(name, ".po"))
		}
	}
	return Load(fsOpener{dirname}, locales)
}

// Load returns a Catalog that reads each of locales from opener. A locale
// whose file is missing is resolved by retrying localeFallbacks(locale)
// against opener before giving up on it entirely.
func Load(opener FileOpener, locales []string) (Catalog, error) {
	c := &catalog{bundles: make(map[string]map[errtype.Code]string)}
	for _, locale := range locales {
		r, err := opener.Open(locale)
		if err != nil {
			return nil, err
		}
		if r == nil {
			tag, err := language.Parse(locale)
			if err != nil {
				return nil, err
			}
			for _, fb := range localeFallbacks(tag) {
				if r, err = opener.Open(fb.String()); err != nil {
					return nil, err
				} else if r != nil {
					break
				}
			}
			if r == nil {
				continue
			}
		}

		file, err := po.Parse(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("msgcatalog: parsing %s: %w", locale, err)
		}
		c.bundles[locale] = messagesByCode(file)
	}
	return c, nil
}

// messagesByCode extracts the translated headline for each code the file
// has an entry for, preferring the first plural/singular form: catalog
// headlines never vary by plural count.
func messagesByCode(file po.File) map[errtype.Code]string {
	out := make(map[errtype.Code]string)
	for _, msg := range file.Messages {
		code, ok := msgidToCode[msg.Id]
		if !ok || len(msg.Str) == 0 || msg.Str[0] == "" {
			continue
		}
		out[code] = msg.Str[0]
	}
	return out
}

type catalog struct {
	bundles map[string]map[errtype.Code]string
}

func (c *catalog) messageFor(locale string, code errtype.Code) string {
	if b, ok := c.bundles[locale]; ok {
		if s, ok := b[code]; ok {
			return s
		}
	} else if tag, err := language.Parse(locale); err == nil {
		for _, fb := range localeFallbacks(tag) {
			if b, ok := c.bundles[fb.String()]; ok {
				if s, ok := b[code]; ok {
					return s
				}
				break
			}
		}
	}
	return headline[code]
}

func (c *catalog) Render(locale string, f *errtype.ContextUpdateFailure) string {
	msg := c.messageFor(locale, f.Code) + ": " + f.Msg
	if f.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", f.File, f.Line, f.Col, msg)
	}
	return msg
}
