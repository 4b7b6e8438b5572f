package prompt

import "strings"

type goalKind int

const (
	goalThesis goalKind = iota
	goalJournal
	goalGrant
	goalPitch
)

// classifyGoal maps the free-form goal string ("Master's thesis",
// "journal article", ...) onto one of the fixed document templates.
// Unrecognized goals fall back to the thesis structure.
func classifyGoal(goal string) goalKind {
	g := strings.ToLower(strings.TrimSpace(goal))
	switch {
	case strings.Contains(g, "journal") || strings.Contains(g, "article") || strings.Contains(g, "paper"):
		return goalJournal
	case strings.Contains(g, "grant") || strings.Contains(g, "funding"):
		return goalGrant
	case strings.Contains(g, "pitch") || strings.Contains(g, "startup") || strings.Contains(g, "investor"):
		return goalPitch
	default:
		return goalThesis
	}
}
