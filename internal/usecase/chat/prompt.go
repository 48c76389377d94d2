package chat

import (
	"fmt"
	"strings"

	"github.com/futig/ragchat-backend/internal/entity"
)

const DefaultPersona = "You are a helpful assistant. Answer clearly and concisely. " +
	"When the knowledge base context is relevant, rely on it and name the source documents you used."

// buildContextBlock renders retrieved passages, each tagged with its source and score.
func buildContextBlock(results []entity.RetrievalResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := []string{
		"KNOWLEDGE BASE CONTEXT",
		"======================",
		"",
	}
	for i, r := range results {
		parts = append(parts,
			fmt.Sprintf("=== Source %d: %s (chunk %d, score %.3f) ===", i+1, r.SourceDocumentID, r.ChunkRef.Ordinal, r.Score),
			strings.TrimSpace(r.Text),
			"",
		)
	}
	parts = append(parts,
		"======================",
		"END OF CONTEXT",
		"If the context does not contain the answer, say so instead of guessing.",
	)

	return strings.Join(parts, "\n")
}

func buildMessages(persona, userMessage string) []entity.Message {
	var messages []entity.Message
	if p := strings.TrimSpace(persona); p != "" {
		messages = append(messages, entity.Message{Role: entity.RoleSystem, Content: p})
	}
	return append(messages, entity.Message{Role: entity.RoleUser, Content: userMessage})
}
