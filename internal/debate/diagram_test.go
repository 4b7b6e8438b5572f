package debate

import "testing"

func TestExtractDiagram(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{
			name:    "tagged fence",
			content: "intro\n```mermaid\ngraph LR\nA-->B\n```\noutro",
			want:    "graph LR\nA-->B",
			ok:      true,
		},
		{
			name:    "no fence",
			content: "plain text only",
			ok:      false,
		},
		{
			name:    "untagged fence ignored",
			content: "```\ngraph LR\nA-->B\n```",
			ok:      false,
		},
		{
			name:    "other language ignored",
			content: "```python\nprint('x')\n```",
			ok:      false,
		},
		{
			name:    "last block wins",
			content: "```mermaid\ngraph LR\nA-->B\n```\ntext\n```mermaid\ngraph TD\nC-->D\n```",
			want:    "graph TD\nC-->D",
			ok:      true,
		},
		{
			name:    "empty block ignored",
			content: "```mermaid\n```",
			ok:      false,
		},
	}
	for _, c := range cases {
		got, ok := ExtractDiagram(c.content)
		if ok != c.ok || got != c.want {
			t.Errorf("%s: got (%q, %v), want (%q, %v)", c.name, got, ok, c.want, c.ok)
		}
	}
}
