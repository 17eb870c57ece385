// Package extract scans free-form streamed text for an embedded structured
// payload (a ```json fenced block, or text that is itself a whole JSON object)
// and promotes recognized fields into typed slots. Parse failures are never
// surfaced: streamed content is routinely incomplete mid-turn, so a payload
// that does not parse is simply not a payload yet.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// StructuredContent holds the typed slots promoted out of raw text. Slots are
// merged idempotently: a populated slot is only replaced by a later non-empty
// value.
type StructuredContent struct {
	QueryText        string   `json:"query_text,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	Reasoning        string   `json:"reasoning,omitempty"`
	Insights         []string `json:"insights,omitempty"`
	ChartSuggestions []string `json:"chart_suggestions,omitempty"`
}

func (c StructuredContent) IsEmpty() bool {
	return c.QueryText == "" &&
		c.Summary == "" &&
		c.Reasoning == "" &&
		len(c.Insights) == 0 &&
		len(c.ChartSuggestions) == 0
}

// Merge overlays incoming onto existing. Existing values win unless the
// incoming slot is non-empty.
func Merge(existing, incoming StructuredContent) StructuredContent {
	out := existing
	if incoming.QueryText != "" {
		out.QueryText = incoming.QueryText
	}
	if incoming.Summary != "" {
		out.Summary = incoming.Summary
	}
	if incoming.Reasoning != "" {
		out.Reasoning = incoming.Reasoning
	}
	if len(incoming.Insights) > 0 {
		out.Insights = incoming.Insights
	}
	if len(incoming.ChartSuggestions) > 0 {
		out.ChartSuggestions = incoming.ChartSuggestions
	}
	return out
}

// fencedPattern matches a ```json fenced block, including the fences.
var fencedPattern = regexp.MustCompile("(?s)```json\\s*\n(.*?)```")

// Extract looks for a structured payload in raw text. It returns the promoted
// content, the residual display text, and whether a payload was found.
//
// Resolution order, first match wins:
//  1. a ```json fenced block whose body parses as a JSON object; residual is
//     the text with the block removed and surrounding whitespace trimmed
//  2. the entire trimmed text is a JSON object; residual is empty
//  3. no payload; residual is the input unchanged
func Extract(raw string) (StructuredContent, string, bool) {
	if m := fencedPattern.FindStringSubmatchIndex(raw); m != nil {
		body := raw[m[2]:m[3]]
		obj, ok := parseObject(body)
		if !ok {
			// Likely a partial block mid-stream; keep the text verbatim.
			return StructuredContent{}, raw, false
		}
		residual := strings.TrimSpace(raw[:m[0]] + raw[m[1]:])
		return promote(obj), residual, true
	}

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if obj, ok := parseObject(trimmed); ok {
			return promote(obj), "", true
		}
	}

	return StructuredContent{}, raw, false
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, obj != nil
}

func promote(obj map[string]any) StructuredContent {
	var c StructuredContent
	if s, ok := obj["sql"].(string); ok {
		c.QueryText = strings.TrimSpace(s)
	}
	if s, ok := obj["summary"].(string); ok {
		c.Summary = strings.TrimSpace(s)
	}
	if s, ok := obj["reasoning"].(string); ok {
		c.Reasoning = strings.TrimSpace(s)
	}
	c.Insights = normalizeList(obj["insights"], "title", "description")
	c.ChartSuggestions = normalizeList(obj["chart_recommendations"], "chart_type", "reason")
	return c
}

// normalizeList flattens an array (or single value) of strings and objects
// into bullet lines. Objects carrying the expected key pair become a combined
// bullet; anything else is serialized verbatim as a fallback.
func normalizeList(v any, primaryKey, secondaryKey string) []string {
	if v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	var out []string
	for _, item := range items {
		switch it := item.(type) {
		case string:
			if s := strings.TrimSpace(it); s != "" {
				out = append(out, "- "+s)
			}
		case map[string]any:
			primary, _ := it[primaryKey].(string)
			secondary, _ := it[secondaryKey].(string)
			if primary != "" && secondary != "" {
				out = append(out, "- "+primary+": "+secondary)
				continue
			}
			if b, err := json.Marshal(it); err == nil {
				out = append(out, "- "+string(b))
			}
		default:
			if b, err := json.Marshal(it); err == nil {
				out = append(out, "- "+string(b))
			}
		}
	}
	return out
}
