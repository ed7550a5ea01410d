package backend

import (
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

const maxMessageLen = 300

// ExtractMessage picks the most useful human message from an error body.
// JSON bodies are searched for error, detail, message and non_field_errors,
// then for the first field error. Plain text is used as is.
func ExtractMessage(body []byte, status int) string {
	if msg := messageFromJSON(body); msg != "" {
		return clip(msg)
	}
	text := strings.TrimSpace(string(body))
	if text != "" && !strings.HasPrefix(text, "<") && !gjson.ValidBytes(body) {
		return clip(text)
	}
	return http.StatusText(status)
}

func messageFromJSON(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return messageFrom(gjson.ParseBytes(body), 0)
}

func messageFrom(r gjson.Result, depth int) string {
	if depth > 3 {
		return ""
	}
	switch {
	case r.Type == gjson.String:
		return strings.TrimSpace(r.Str)
	case r.IsArray():
		for _, item := range r.Array() {
			if msg := messageFrom(item, depth+1); msg != "" {
				return msg
			}
		}
		return ""
	case !r.IsObject():
		return ""
	}
	for _, key := range []string{"error", "detail", "message", "non_field_errors"} {
		if msg := messageFrom(r.Get(key), depth+1); msg != "" {
			return msg
		}
	}
	fields := r.Map()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msg := messageFrom(fields[k], depth+1); msg != "" {
			return k + ": " + msg
		}
	}
	return ""
}

func clip(s string) string {
	runes := []rune(s)
	if len(runes) <= maxMessageLen {
		return s
	}
	return strings.TrimSpace(string(runes[:maxMessageLen])) + "…"
}
