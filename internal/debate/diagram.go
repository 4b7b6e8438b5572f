package debate

import (
	"regexp"
	"strings"
)

// reDiagramFence matches a fenced code block tagged as a diagram language.
var reDiagramFence = regexp.MustCompile("(?s)```(?:mermaid|Mermaid)[ \t]*\n(.*?)```")

// ExtractDiagram scans writer content for a fenced diagram block and
// returns its inner text. When the content carries several blocks the last
// one wins; when it carries none, ok is false and the caller keeps the
// previously stored diagram source.
func ExtractDiagram(content string) (string, bool) {
	matches := reDiagramFence.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return "", false
	}
	inner := strings.TrimSpace(matches[len(matches)-1][1])
	if inner == "" {
		return "", false
	}
	return inner, true
}
