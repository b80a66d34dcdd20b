package extract

import (
	"strings"

	"github.com/tidwall/gjson"
)

// chatter prefixes models put around a payload
var chatterPrefixes = []string{"here is", "here's", "the json", "output:", "response:", "berikut", "##"}

// findJSON locates a JSON object or array inside a model response
func findJSON(text string) (string, bool) {
	content := stripFences(strings.TrimSpace(text))
	if content == "" {
		return "", false
	}
	if (strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")) && gjson.Valid(content) {
		return content, true
	}

	cleaned := dropChatter(content)
	if gjson.Valid(cleaned) && (strings.HasPrefix(cleaned, "{") || strings.HasPrefix(cleaned, "[")) {
		logger.Debug("removed chatter around JSON payload")
		return cleaned, true
	}

	// last resort: the widest {...} or [...] span that is valid JSON
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(content, pair[0])
		end := strings.LastIndex(content, pair[1])
		if start >= 0 && end > start {
			candidate := content[start : end+1]
			if gjson.Valid(candidate) {
				logger.Debug("trimmed %d bytes of prose around JSON payload", len(content)-len(candidate))
				return candidate, true
			}
		}
	}
	return "", false
}

// stripFences returns the body of the first ``` fenced block, or content unchanged
func stripFences(content string) string {
	start := strings.Index(content, "```")
	if start < 0 {
		return content
	}
	body := content[start+3:]
	end := strings.Index(body, "```")
	if end < 0 {
		return content
	}
	body = body[:end]
	// drop the language tag on the opening line
	if nl := strings.Index(body, "\n"); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	return strings.TrimSpace(body)
}

func dropChatter(content string) string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if trimmed == "" || hasAnyPrefix(lower, chatterPrefixes) ||
			strings.Contains(lower, "below is") || strings.Contains(lower, "following is") {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
