package export

import (
	"fmt"
	"sort"
	"strings"
)

// issueTitle picks the mapped title for issue-style destinations, falling
// back to a placeholder so issue creation never fails on a blank title.
func issueTitle(fields map[string]any) string {
	if v, ok := fields["title"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "Untitled"
}

// issueBody renders the mapped description followed by any remaining
// mapped fields, since issue trackers have no arbitrary columns.
func issueBody(fields map[string]any) string {
	var b strings.Builder
	if v, ok := fields["description"]; ok {
		if s, ok := v.(string); ok {
			b.WriteString(s)
		}
	}

	extras := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == "title" || k == "description" {
			continue
		}
		extras = append(extras, fmt.Sprintf("%s: %v", k, v))
	}
	if len(extras) > 0 {
		sort.Strings(extras)
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Join(extras, "\n"))
	}
	return b.String()
}
