package extractor

import (
	"bytes"
	"strings"

	"github.com/unidoc/unioffice/document"
)

func docxText(content []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var paragraphs []string
	add := func(p document.Paragraph) {
		var b strings.Builder
		for _, r := range p.Runs() {
			b.WriteString(r.Text())
		}
		if t := strings.TrimSpace(b.String()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	}

	for _, p := range doc.Paragraphs() {
		add(p)
	}
	for _, table := range doc.Tables() {
		for _, row := range table.Rows() {
			for _, cell := range row.Cells() {
				for _, p := range cell.Paragraphs() {
					add(p)
				}
			}
		}
	}

	return strings.Join(paragraphs, "\n\n"), nil
}
