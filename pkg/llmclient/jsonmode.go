package llmclient

import "strings"

// stripJSONFence removes a ```json ... ``` or plain ``` ... ``` wrapper a
// model sometimes adds around a JSON response despite being asked for raw
// JSON. Text without a fence is returned unchanged.
func stripJSONFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
