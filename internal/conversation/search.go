package conversation

import "strings"

// FilterMessages keeps the messages whose body contains query, ignoring
// case. Structured advice is searched over its heading, finding, strategy
// and steps. An empty query keeps everything.
func FilterMessages(msgs []Message, query string) []Message {
	if query == "" {
		return CloneMessages(msgs)
	}
	q := strings.ToLower(query)
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if strings.Contains(strings.ToLower(m.Body.SearchText()), q) {
			out = append(out, m.Clone())
		}
	}
	return out
}
