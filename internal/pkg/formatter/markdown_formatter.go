package formatter

import (
	"bytes"
	"fmt"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(a Answer) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", baseTitle)
	if a.Question != "" {
		fmt.Fprintf(&buf, "**Question:** %s\n\n", a.Question)
	}
	fmt.Fprintf(&buf, "%s\n", a.Text)

	if len(a.Sources) > 0 {
		buf.WriteString("\n## Sources\n\n")
		for _, s := range a.Sources {
			fmt.Fprintf(&buf, "- %s\n", sourceLine(s))
		}
	}
	if m := modelLine(a); m != "" {
		fmt.Fprintf(&buf, "\n_%s_\n", m)
	}
	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
