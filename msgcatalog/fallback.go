package msgcatalog

import "golang.org/x/text/language"

// localeFallbacks returns tags that can stand in for tag, ordered from most
// to least specific: language+script+region, then language+script, then
// bare language. A catalog missing a translation for the exact requested
// locale is retried against each of these in turn.
func localeFallbacks(tag language.Tag) []language.Tag {
	var chain []language.Tag
	lang, script, region := tag.Raw()
	// language.Tag.Raw reports "ZZ"/"Zzzz" for a region or script that
	// wasn't specified; skip composing a fallback for those.
	if region.String() != "ZZ" {
		if t, err := language.Compose(lang, script, region); err == nil {
			chain = append(chain, t)
		}
	}
	if script.String() != "Zzzz" {
		if t, err := language.Compose(lang, script); err == nil {
			chain = append(chain, t)
		}
	}
	if t, err := language.Compose(lang); err == nil {
		chain = append(chain, t)
	}
	return chain
}
