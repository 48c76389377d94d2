package formatter

import (
	"bytes"

	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (df *DOCXFormatter) Format(a Answer) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	heading := func(text, style string) {
		p := doc.AddParagraph()
		p.SetStyle(style)
		p.AddRun().AddText(text)
	}

	heading(baseTitle, "Heading1")

	if a.Question != "" {
		p := doc.AddParagraph()
		label := p.AddRun()
		label.Properties().SetBold(true)
		label.AddText("Question: ")
		p.AddRun().AddText(a.Question)
	}

	doc.AddParagraph().AddRun().AddText(a.Text)

	if len(a.Sources) > 0 {
		heading("Sources", "Heading2")
		for _, s := range a.Sources {
			doc.AddParagraph().AddRun().AddText(sourceLine(s))
		}
	}
	if m := modelLine(a); m != "" {
		run := doc.AddParagraph().AddRun()
		run.Properties().SetItalic(true)
		run.AddText(m)
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (df *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (df *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
