package generate

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceOpen  = regexp.MustCompile("^```[A-Za-z]*\\s*\n?")
	fenceClose = regexp.MustCompile("\n?```\\s*$")
	jsonBlock  = regexp.MustCompile(`(?s)[\[{].*[\]}]`)
)

type sqlPayload struct {
	SQL string `json:"sql"`
}

// DecodeSQL pulls the SQL text out of a model response. It accepts
// {"sql": ...}, an array of such objects (first non-empty wins), the same
// wrapped in markdown fences, and finally bare SQL.
func DecodeSQL(response string) string {
	text := strings.TrimSpace(response)
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if sql, ok := decodeJSON(text); ok {
		return sql
	}
	if m := jsonBlock.FindString(text); m != "" && m != text {
		if sql, ok := decodeJSON(m); ok {
			return sql
		}
	}
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return ""
	}
	return text
}

func decodeJSON(text string) (string, bool) {
	var one sqlPayload
	if err := json.Unmarshal([]byte(text), &one); err == nil {
		return strings.TrimSpace(one.SQL), true
	}

	var many []sqlPayload
	if err := json.Unmarshal([]byte(text), &many); err == nil {
		for _, p := range many {
			if sql := strings.TrimSpace(p.SQL); sql != "" {
				return sql, true
			}
		}
		return "", true
	}

	var str string
	if err := json.Unmarshal([]byte(text), &str); err == nil {
		return strings.TrimSpace(str), true
	}
	return "", false
}
