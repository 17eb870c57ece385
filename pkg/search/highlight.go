package search

import "regexp"

// Span is one segment of highlighted text. The presentation layer renders
// emphasis for Match spans itself; no markup is injected here.
type Span struct {
	Text  string
	Match bool
}

// HighlightSpans splits text into spans around every case-insensitive
// occurrence of query. The query is treated as a literal string: regex
// metacharacters are escaped before matching.
func HighlightSpans(text, query string) []Span {
	if text == "" {
		return nil
	}
	if query == "" {
		return []Span{{Text: text}}
	}

	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		return []Span{{Text: text}}
	}

	var spans []Span
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			spans = append(spans, Span{Text: text[last:loc[0]]})
		}
		spans = append(spans, Span{Text: text[loc[0]:loc[1]], Match: true})
		last = loc[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Text: text[last:]})
	}
	return spans
}
