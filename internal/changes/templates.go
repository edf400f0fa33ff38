package changes

import "fmt"

// template renders the title/body pair for a rollup of a given size.
type template struct {
	title    string
	singular string
	plural   string
}

// templates keys rollup copy by change detail. Unlisted details fall back to
// the generic lead activity copy.
var templates = map[string]template{
	"chat_message": {
		title:    "New messages",
		singular: "You have 1 new chat message from a lead",
		plural:   "You have %d new chat messages from your leads",
	},
	"meeting_scheduled": {
		title:    "Meetings booked",
		singular: "A lead booked a meeting",
		plural:   "%d leads booked meetings",
	},
	"meeting_canceled": {
		title:    "Meetings canceled",
		singular: "A lead canceled their meeting",
		plural:   "%d leads canceled their meetings",
	},
	"meeting_no_show": {
		title:    "Missed meetings",
		singular: "A lead missed their meeting and needs review",
		plural:   "%d leads missed their meetings and need review",
	},
	"heat_promoted": {
		title:    "Leads heating up",
		singular: "1 lead was promoted",
		plural:   "%d leads were promoted",
	},
}

var genericTemplate = template{
	title:    "Lead updates",
	singular: "1 update to your leads",
	plural:   "%d updates to your leads",
}

// render produces the title and body for a change detail at a given count.
func render(detail string, count int) (title, body string) {
	tpl, ok := templates[detail]
	if !ok {
		tpl = genericTemplate
	}
	if count <= 1 {
		return tpl.title, tpl.singular
	}
	return tpl.title, fmt.Sprintf(tpl.plural, count)
}
