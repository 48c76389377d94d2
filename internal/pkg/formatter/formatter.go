package formatter

import (
	"fmt"

	"github.com/futig/ragchat-backend/internal/entity"
)

const baseTitle = "Answer"

// Answer is a finished chat turn prepared for export.
type Answer struct {
	Question string
	Text     string
	Provider string
	Model    string
	Sources  []entity.RetrievalResult
}

func NewAnswer(question string, reply entity.ChatReply) Answer {
	return Answer{
		Question: question,
		Text:     reply.Text,
		Provider: reply.Outcome.Provider,
		Model:    reply.Outcome.Model,
		Sources:  reply.Sources,
	}
}

type Formatter interface {
	Format(answer Answer) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func sourceLine(s entity.RetrievalResult) string {
	return fmt.Sprintf("%s, chunk %d (score %.3f)", s.SourceDocumentID, s.ChunkRef.Ordinal, s.Score)
}

func modelLine(a Answer) string {
	if a.Provider == "" {
		return ""
	}
	if a.Model == "" {
		return a.Provider
	}
	return a.Provider + " / " + a.Model
}
