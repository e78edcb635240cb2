package chatbot

import (
	"encoding/json"
	"strings"
)

// FallbackReply answers a webhook that returned nothing usable.
const FallbackReply = "Respuesta recibida del webhook"

var replyFields = []string{"response", "respond", "message"}

// Extract picks the reply out of an untyped webhook body: the first non-empty string
// among response, respond and message; otherwise the raw text verbatim.
func Extract(body []byte) string {
	raw := string(body)
	if strings.TrimSpace(raw) == "" {
		return FallbackReply
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return raw
	}
	for _, field := range replyFields {
		if s, ok := doc[field].(string); ok && s != "" {
			return s
		}
	}
	return FallbackReply
}
