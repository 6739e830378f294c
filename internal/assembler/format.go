package assembler

import (
	"fmt"
	"strings"

	"github.com/Alpha200/ha-ai-tasker/internal/memory"
)

// PromptBlock renders the context as the situational block handed to the
// decision step. Unavailable fields are named as such so the decision step
// knows it is working from partial information.
func (d *DecisionContext) PromptBlock() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Current time: %s\n", d.Now.Format("2006-01-02 15:04 Monday"))

	if d.Location.Available {
		fmt.Fprintf(&sb, "Location: %s\n", d.Location.Value)
	} else {
		sb.WriteString("Location: unknown\n")
	}

	if d.Weather.Available {
		fmt.Fprintf(&sb, "Weather: %s\n", d.Weather.Value)
	} else {
		sb.WriteString("Weather: unavailable\n")
	}

	if d.Calendar.Available {
		if len(d.Calendar.Value) == 0 {
			sb.WriteString("Calendar: no upcoming events\n")
		} else {
			sb.WriteString("Calendar:\n")
			for _, ev := range d.Calendar.Value {
				fmt.Fprintf(&sb, "- %s (%s)\n", ev.Summary, ev.Start.Format("2006-01-02 15:04"))
			}
		}
	} else {
		sb.WriteString("Calendar: unavailable\n")
	}

	sb.WriteString("Memories:\n")
	sb.WriteString(memory.Format(d.Memories))

	return sb.String()
}
