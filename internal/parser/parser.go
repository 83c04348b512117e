// Package parser classifies raw model replies into plain text or a structured
// tool invocation.
//
// The detection rule is all-or-nothing: a reply is a tool call only if the
// entire reply, after trimming whitespace, is a single well-formed JSON object
// with a recognized "tool" field and its required companion fields. Any parse
// failure, missing field, extra object, or trailing prose falls back to plain
// text with the reply unchanged — an ambiguous payload is never executed.
package parser

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Parse classifies one model reply. It is a pure function: parsing the same
// reply twice yields the same classification and payload.
func Parse(raw string) Result {
	plain := Result{Kind: KindPlainText, Text: raw}

	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return plain
	}

	r := strings.NewReader(trimmed)
	dec := json.NewDecoder(r)
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return plain
	}
	if !onlyWhitespaceRemains(dec, r) {
		// A second object or trailing prose makes the reply malformed;
		// partial execution is never attempted.
		return plain
	}

	toolRaw, ok := payload["tool"].(string)
	if !ok {
		return plain
	}

	switch ToolName(strings.ToLower(strings.TrimSpace(toolRaw))) {
	case ToolShell:
		call, ok := decodeShell(payload)
		if !ok {
			return plain
		}
		return Result{Kind: KindToolCall, Call: &ToolCall{Tool: ToolShell, Shell: call}}
	case ToolSearch:
		call, ok := decodeSearch(payload)
		if !ok {
			return plain
		}
		return Result{Kind: KindToolCall, Call: &ToolCall{Tool: ToolSearch, Search: call}}
	default:
		return plain
	}
}

func decodeShell(payload map[string]any) (*ShellCall, bool) {
	if _, ok := payload["command"]; !ok {
		return nil, false
	}
	if _, ok := payload["explanation"]; !ok {
		return nil, false
	}
	var call ShellCall
	if err := mapstructure.Decode(payload, &call); err != nil {
		return nil, false
	}
	if strings.TrimSpace(call.Command) == "" {
		return nil, false
	}
	return &call, true
}

func decodeSearch(payload map[string]any) (*SearchCall, bool) {
	if _, ok := payload["query"]; !ok {
		return nil, false
	}
	var call SearchCall
	if err := mapstructure.Decode(payload, &call); err != nil {
		return nil, false
	}
	if strings.TrimSpace(call.Query) == "" {
		return nil, false
	}
	return &call, true
}

// onlyWhitespaceRemains reports whether nothing but whitespace follows the
// decoded object, checking both the decoder's buffer and the unread input.
func onlyWhitespaceRemains(dec *json.Decoder, r io.Reader) bool {
	rest, err := io.ReadAll(io.MultiReader(dec.Buffered(), r))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(rest)) == ""
}
