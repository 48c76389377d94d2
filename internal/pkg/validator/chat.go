package validator

import (
	"fmt"
	"strings"

	"github.com/futig/ragchat-backend/internal/entity"
)

// ValidateChatTurn checks the fields the orchestrator cannot default.
func ValidateChatTurn(turn *entity.ChatTurn) error {
	if strings.TrimSpace(turn.Message) == "" {
		return fmt.Errorf("%w: message", entity.ErrMissingField)
	}
	if strings.TrimSpace(turn.Provider) == "" {
		return fmt.Errorf("%w: provider", entity.ErrMissingField)
	}
	if turn.Temperature != nil && (*turn.Temperature < 0 || *turn.Temperature > 2) {
		return fmt.Errorf("%w: temperature must be between 0 and 2", entity.ErrValidation)
	}
	if turn.MaxTokens < 0 {
		return fmt.Errorf("%w: max_tokens must not be negative", entity.ErrValidation)
	}
	return nil
}

func ValidateSearch(req *entity.SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("%w: query", entity.ErrMissingField)
	}
	if req.TopK < 0 {
		return fmt.Errorf("%w: top_k must not be negative", entity.ErrValidation)
	}
	if req.MinScore != nil && (*req.MinScore < 0 || *req.MinScore > 1) {
		return fmt.Errorf("%w: min_score must be between 0 and 1", entity.ErrValidation)
	}
	return nil
}
