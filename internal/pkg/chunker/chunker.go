// Package chunker splits raw document text into bounded chunks on paragraph
// and sentence boundaries.
package chunker

import (
	"regexp"
	"strings"
)

const DefaultMaxTokens = 300

var (
	paragraphSplitter = regexp.MustCompile(`\n\s*\n`)
	sentenceSplitter  = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)
)

type Chunker struct {
	maxTokens int
}

type Option func(*Chunker)

// WithMaxTokens bounds every chunk to n whitespace-separated words.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

func New(opts ...Option) *Chunker {
	c := &Chunker{maxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// Split returns the non-empty chunks of text in order.
// Paragraphs are packed together while they fit; an oversized paragraph is
// split into sentences, and an oversized sentence into word windows.
func (c *Chunker) Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		chunks  []string
		current []string
		size    int
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
		}
		current = nil
		size = 0
	}

	for _, para := range paragraphSplitter.Split(text, -1) {
		para = normalizeSpace(para)
		if para == "" {
			continue
		}
		n := wordCount(para)
		if n > c.maxTokens {
			flush()
			chunks = append(chunks, c.splitParagraph(para)...)
			continue
		}
		if size+n > c.maxTokens {
			flush()
		}
		current = append(current, para)
		size += n
	}
	flush()

	return chunks
}

func (c *Chunker) splitParagraph(para string) []string {
	var (
		chunks  []string
		current []string
		size    int
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}
		current = nil
		size = 0
	}

	for _, sentence := range sentenceSplitter.FindAllString(para, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		words := strings.Fields(sentence)
		if len(words) > c.maxTokens {
			flush()
			for start := 0; start < len(words); start += c.maxTokens {
				end := min(start+c.maxTokens, len(words))
				chunks = append(chunks, strings.Join(words[start:end], " "))
			}
			continue
		}
		if size+len(words) > c.maxTokens {
			flush()
		}
		current = append(current, sentence)
		size += len(words)
	}
	flush()

	return chunks
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
