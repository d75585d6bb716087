package chat

import (
	"strings"

	"github.com/szaher/lingochat/internal/memory"
)

// ContextExchanges is how many past exchanges are replayed into the prompt.
// It is independent of memory.MaxExchanges, which bounds what is stored.
const ContextExchanges = 5

// BuildContext renders the single text prompt sent to the completion
// provider: the system template, the most recent exchanges oldest first,
// and the new message followed by an open assistant cue.
func BuildContext(template string, history []memory.Exchange, message string) string {
	if len(history) > ContextExchanges {
		history = history[len(history)-ContextExchanges:]
	}

	var sb strings.Builder
	sb.WriteString(template)
	sb.WriteString("\n\n")
	for _, ex := range history {
		sb.WriteString("User: ")
		sb.WriteString(ex.User)
		sb.WriteString("\nAssistant: ")
		sb.WriteString(ex.Bot)
		sb.WriteString("\n\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(message)
	sb.WriteString("\nAssistant:")
	return sb.String()
}
