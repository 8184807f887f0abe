// Package normalize extracts a single output string from heterogeneous
// provider response bodies.
//
// Extraction is an ordered list of rules. The first rule that yields a
// non-blank string wins, so the order of DefaultRules is the tie-break
// between shapes that may coexist in one body (for example a Responses API
// payload that carries both output_text and output blocks).
package normalize

import (
	"encoding/json"
	"strings"
)

// Rule inspects a decoded JSON object and returns the extracted text, or ""
// when the rule does not apply.
type Rule func(body map[string]interface{}) string

// DefaultRules is the extraction order used by Extract.
var DefaultRules = []Rule{
	OutputTextRule,
	OutputBlocksRule,
	ChatCompletionRule,
	GenericFieldsRule,
}

// genericFields are tried in this priority order by GenericFieldsRule.
var genericFields = []string{"text", "output", "result", "response"}

// Extract decodes raw and applies DefaultRules.
// The boolean is false when the body is not a JSON object or no rule matched.
func Extract(raw []byte) (string, bool) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", false
	}
	return ExtractValue(decoded)
}

// ExtractValue applies DefaultRules to an already decoded JSON value.
func ExtractValue(v interface{}) (string, bool) {
	return ExtractWith(v, DefaultRules...)
}

// ExtractWith applies the given rules in order.
func ExtractWith(v interface{}, rules ...Rule) (string, bool) {
	body, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}
	for _, rule := range rules {
		if text := strings.TrimSpace(rule(body)); text != "" {
			return text, true
		}
	}
	return "", false
}

// OutputTextRule reads a top-level "output_text" string.
func OutputTextRule(body map[string]interface{}) string {
	s, _ := body["output_text"].(string)
	return s
}

// OutputBlocksRule walks output[].content[] and concatenates the text of
// every block in document order. A block contributes its "text" and
// "content" fields, each either a string or an object with a "value".
func OutputBlocksRule(body map[string]interface{}) string {
	items, ok := body["output"].([]interface{})
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, item := range items {
		itemObj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		blocks, ok := itemObj["content"].([]interface{})
		if !ok {
			continue
		}
		for _, block := range blocks {
			blockObj, ok := block.(map[string]interface{})
			if !ok {
				continue
			}
			b.WriteString(textOrValue(blockObj["text"]))
			b.WriteString(textOrValue(blockObj["content"]))
		}
	}
	return strings.TrimSpace(b.String())
}

// ChatCompletionRule reads choices[0].message.content.
func ChatCompletionRule(body map[string]interface{}) string {
	choices, ok := body["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return ""
	}
	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return ""
	}
	message, ok := choice["message"].(map[string]interface{})
	if !ok {
		return ""
	}
	content, _ := message["content"].(string)
	return content
}

// GenericFieldsRule returns the first non-blank string among text, output,
// result and response.
func GenericFieldsRule(body map[string]interface{}) string {
	for _, key := range genericFields {
		if s, ok := body[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func textOrValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		if s, ok := t["value"].(string); ok {
			return s
		}
	}
	return ""
}
