// store/tags.go
package store

import (
	"encoding/json"
	"strings"
)

// Tags are stored as a JSON array in a text column. Older rows may hold a
// comma-separated list instead.

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return strings.Join(tags, ",")
	}
	return string(data)
}

func decodeTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err == nil {
		if tags == nil {
			return []string{}
		}
		return tags
	}

	tags = []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
