// Package extractor turns uploaded files into plain text for ingestion.
package extractor

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/gabriel-vasile/mimetype"
)

const (
	MIMEPlain    = "text/plain"
	MIMEMarkdown = "text/markdown"
	MIMEHTML     = "text/html"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var extensionTypes = map[string]string{
	".txt":      MIMEPlain,
	".text":     MIMEPlain,
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
	".html":     MIMEHTML,
	".htm":      MIMEHTML,
	".docx":     MIMEDOCX,
}

// Supported reports whether mimeType can be extracted.
func Supported(mimeType string) bool {
	switch baseType(mimeType) {
	case MIMEPlain, MIMEMarkdown, MIMEHTML, MIMEDOCX:
		return true
	default:
		return false
	}
}

// DetectMIME picks the declared type when it is specific, then the file extension,
// then sniffs the content.
func DetectMIME(filename, declared string, content []byte) string {
	if t := baseType(declared); t != "" && t != "application/octet-stream" && Supported(t) {
		return t
	}
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return baseType(mimetype.Detect(content).String())
}

// ExtractText returns the plain text of content. Unsupported types fail with entity.ErrValidation.
func ExtractText(content []byte, mimeType string) (string, error) {
	var (
		text string
		err  error
	)

	switch t := baseType(mimeType); t {
	case MIMEPlain:
		text, err = plainText(content)
	case MIMEMarkdown:
		text, err = markdownText(content)
	case MIMEHTML:
		text, err = htmlText(content)
	case MIMEDOCX:
		text, err = docxText(content)
	default:
		return "", fmt.Errorf("%w: unsupported content type %q", entity.ErrValidation, mimeType)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrValidation, err)
	}
	return strings.TrimSpace(text), nil
}

func baseType(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	t, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return t
}

func plainText(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) {
		return "", fmt.Errorf("text is not valid UTF-8")
	}
	return string(content), nil
}
