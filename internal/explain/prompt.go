package explain

import (
	"fmt"
	"strings"
	"time"

	"github.com/dhbtk/webtarot/internal/i18n"
)

// SystemPrompt returns the instruction message for the model in the
// request's locale.
func SystemPrompt(l i18n.Locale) string {
	return i18n.T(l, "prompt.system")
}

// UserPrompt renders the spread as the user message: timestamp, question,
// the cards in draw order with localized names, and whatever the querent
// shared about themselves. The timestamp gives the model temporal context
// for questions like "what does this month hold".
func UserPrompt(req Request) string {
	l := req.Locale

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", i18n.T(l, "prompt.now"), time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "%s %s\n", i18n.T(l, "prompt.question"), req.Question)
	// Whitespace-only optional fields count as absent.
	if strings.TrimSpace(req.Context) != "" {
		fmt.Fprintf(&b, "%s %s\n", i18n.T(l, "prompt.context"), req.Context)
	}
	b.WriteString(i18n.T(l, "prompt.cards_in_order"))
	for i, card := range req.Cards {
		fmt.Fprintf(&b, "\n%d. %s", i+1, i18n.CardName(l, card))
	}
	if strings.TrimSpace(req.UserName) != "" {
		fmt.Fprintf(&b, "\n%s %s", i18n.T(l, "prompt.user_name"), req.UserName)
	}
	if strings.TrimSpace(req.SelfDescription) != "" {
		fmt.Fprintf(&b, "\n%s %s", i18n.T(l, "prompt.self_description"), req.SelfDescription)
	}
	return b.String()
}
