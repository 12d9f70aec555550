package ai

import (
	"regexp"
	"strings"
)

var thinkBlocks = regexp.MustCompile(`(?s)<think>.*?</think>`)

// isGarbageResponse catches replies that are error pages or refusals
// dressed up as content.
func isGarbageResponse(s string) bool {
	l := strings.ToLower(s)

	if strings.Contains(l, "<html") {
		return true
	}
	if strings.Contains(l, "not allowed") {
		return true
	}
	if len(strings.TrimSpace(s)) < 5 {
		return true
	}
	return false
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}

// cleanReply strips reasoning blocks, wrapping quotes, and trims the
// reply under Discord's message size limit.
func cleanReply(reply string) string {
	reply = strings.TrimSpace(thinkBlocks.ReplaceAllString(reply, ""))

	if len(reply) >= 2 {
		quotes := []struct{ open, close string }{
			{`"`, `"`}, {`'`, `'`}, {"“", "”"}, {"‘", "’"},
		}
		for _, q := range quotes {
			if strings.HasPrefix(reply, q.open) && strings.HasSuffix(reply, q.close) {
				reply = strings.TrimSuffix(strings.TrimPrefix(reply, q.open), q.close)
				reply = strings.TrimSpace(reply)
				break
			}
		}
	}

	if len(reply) > 1900 {
		reply = reply[:1900] + "…"
	}

	return reply
}
