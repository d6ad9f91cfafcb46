package webhook

import (
	"slices"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// span is a rune range inside a text message.
type span struct {
	start, end int
}

// selfMentions returns the rune spans where the bot itself is mentioned.
func selfMentions(mention *webhook.Mention) []span {
	if mention == nil {
		return nil
	}
	var spans []span
	for _, m := range mention.Mentionees {
		if um, ok := m.(webhook.UserMentionee); ok && um.IsSelf {
			spans = append(spans, span{start: int(um.Index), end: int(um.Index + um.Length)})
		}
	}
	return spans
}

// addressedText returns the message text with the bot's own mentions cut
// out, and whether the bot was mentioned at all. LINE mention indexes count
// runes, not bytes.
func addressedText(msg webhook.TextMessageContent) (string, bool) {
	spans := selfMentions(msg.Mention)
	if len(spans) == 0 {
		return msg.Text, false
	}

	// Cut back to front so earlier indexes stay valid
	slices.SortFunc(spans, func(a, b span) int { return b.start - a.start })

	runes := []rune(msg.Text)
	for _, s := range spans {
		start := max(s.start, 0)
		end := min(s.end, len(runes))
		if start >= end {
			continue
		}
		runes = append(runes[:start], runes[end:]...)
	}
	return strings.Join(strings.Fields(string(runes)), " "), true
}
