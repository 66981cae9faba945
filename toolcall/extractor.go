// Package toolcall recovers structured tool invocations from an assistant's
// free-form text reply. Providers are not required to speak a native
// function-calling wire format here; the model is instructed (via the
// system prompt) to describe calls in a handful of conventional shapes, and
// this package is the inverse of that convention.
package toolcall

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Call is one recovered invocation: a tool name and its JSON-object
// arguments.
type Call struct {
	Name      string
	Arguments map[string]any
}

// namedPatterns are tried, in order, against each fenced code block's
// preceding text plus the block itself. Each must capture the tool name in
// group 1 and the JSON payload in group 2. First match wins.
var namedPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?is)Let me call the `([^`]+)`.*?```(?:json)?\\s*(\\{.*?\\})\\s*```"),
	regexp.MustCompile("(?is)Let me call `([^`]+)`.*?```(?:json)?\\s*(\\{.*?\\})\\s*```"),
	regexp.MustCompile("(?is)Using the `([^`]+)` tool:.*?```(?:json)?\\s*(\\{.*?\\})\\s*```"),
	regexp.MustCompile("(?is)I'll use `([^`]+)`:.*?```(?:json)?\\s*(\\{.*?\\})\\s*```"),
	regexp.MustCompile("(?is)`([^`]+)`.*?```(?:json)?\\s*(\\{.*?\\})\\s*```"),
}

var bareFencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// diagnosticFieldOrder maps a bare JSON object's field names to the tool
// name it implies, tried in this fixed priority order when no name was
// captured directly.
var diagnosticFieldOrder = []struct {
	field string
	tool  string
}{
	{"query", "brave_search"},
	{"url", "scrape_url"},
	{"command", "bash"},
	{"sequential_thinking", "sequential_thinking"},
	{"memory", "memory"},
	{"task_planning", "task_planning"},
}

// Extract recovers the ordered list of tool calls in text. An empty result
// means the turn is terminal: the caller should treat it as the assistant's
// final answer rather than dispatch anything.
func Extract(text string) []Call {
	var calls []Call

	fences := strings.Split(text, "```")
	for i := 1; i < len(fences); i += 2 {
		// Reconstruct enough context (the text immediately preceding this
		// fence plus the fence itself) for the named patterns, which expect
		// to see the introductory phrase and the fence together.
		context := fences[i-1]
		if len(context) > 200 {
			context = context[len(context)-200:]
		}
		candidate := context + "```" + fences[i] + "```"

		if call, ok := matchNamed(candidate); ok {
			calls = append(calls, call)
			continue
		}
		if call, ok := matchBareBlock(fences[i]); ok {
			calls = append(calls, call)
		}
	}

	if len(calls) > 0 {
		return calls
	}

	// Final fallback: scan the whole text for balanced { … } substrings.
	for _, obj := range balancedBraceSubstrings(text) {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
			continue
		}
		if call, ok := inferFromFields(parsed); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func matchNamed(candidate string) (Call, bool) {
	for _, pat := range namedPatterns {
		m := pat.FindStringSubmatch(candidate)
		if m == nil {
			continue
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(m[2]), &parsed); err != nil {
			continue
		}
		return Call{Name: strings.TrimSpace(m[1]), Arguments: parsed}, true
	}
	return Call{}, false
}

// matchBareBlock handles a fenced block with no named-pattern match: the
// fence's own content is parsed as JSON and the tool name inferred from its
// fields.
func matchBareBlock(blockBody string) (Call, bool) {
	m := bareFencedJSON.FindStringSubmatch("```" + blockBody + "```")
	var raw string
	if m != nil {
		raw = m[1]
	} else {
		raw = strings.TrimSpace(blockBody)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Call{}, false
	}
	return inferFromFields(parsed)
}

// inferFromFields implements step 4: an explicit "action" field wins
// outright; otherwise the first matching diagnostic field in priority
// order. No match means skip silently.
func inferFromFields(parsed map[string]any) (Call, bool) {
	if action, ok := parsed["action"].(string); ok && action != "" {
		return Call{Name: action, Arguments: parsed}, true
	}
	for _, d := range diagnosticFieldOrder {
		if _, ok := parsed[d.field]; ok {
			return Call{Name: d.tool, Arguments: parsed}, true
		}
	}
	return Call{}, false
}

// balancedBraceSubstrings scans s left to right and returns every
// top-level balanced { … } substring, honoring nesting depth but not
// string-quoted braces — a documented limitation: a `}` inside a quoted
// string throws off the depth count for that substring.
func balancedBraceSubstrings(s string) []string {
	var out []string
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					out = append(out, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return out
}
