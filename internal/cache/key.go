package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/futig/ragchat-backend/internal/entity"
)

type keyMaterial struct {
	Provider    string           `json:"provider"`
	Model       string           `json:"model"`
	Messages    []entity.Message `json:"messages"`
	Context     string           `json:"context"`
	Temperature string           `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

// Key hashes every request field that influences the upstream answer.
// model must be the resolved model so that an implicit default and an explicit one share entries.
func Key(req entity.ChatRequest, model string) string {
	material := keyMaterial{
		Provider:    strings.ToLower(strings.TrimSpace(req.Provider)),
		Model:       model,
		Messages:    req.Messages,
		Context:     req.Context,
		Temperature: strconv.FormatFloat(req.Temperature, 'g', -1, 64),
		MaxTokens:   req.MaxTokens,
	}

	// marshaling a struct of strings, ints and messages cannot fail
	data, _ := json.Marshal(material)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
