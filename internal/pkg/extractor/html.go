package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlBlocks = map[string]struct{}{
	"p": {}, "div": {}, "section": {}, "article": {}, "header": {}, "footer": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"li": {}, "pre": {}, "blockquote": {}, "tr": {}, "table": {}, "br": {},
}

func htmlText(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template, head").Remove()

	var b strings.Builder
	walkHTML(doc.Selection, &b)
	return collapseBlankLines(b.String()), nil
}

func walkHTML(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		if name == "#text" {
			b.WriteString(strings.Join(strings.Fields(c.Text()), " "))
			b.WriteByte(' ')
			return
		}

		walkHTML(c, b)
		if _, block := htmlBlocks[name]; block {
			b.WriteString("\n\n")
		}
	})
}
