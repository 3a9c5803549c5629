package goal

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"bankassist/internal/domain"
)

// ErrInvalidReply means the agent's output could not be read as a goal.
var ErrInvalidReply = errors.New("Неверный формат ответа от сервера")

// ServerError carries the agent's own refusal, e.g. when the prompt lacked
// an amount or a deadline.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return "Недостаточно данных для создания цели"
	}
	return e.Message
}

type goalPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Goal    *struct {
		Title          string          `json:"title"`
		TargetAmount   decimal.Decimal `json:"targetAmount"`
		CurrentAmount  decimal.Decimal `json:"currentAmount"`
		DurationMonths int             `json:"durationMonths"`
	} `json:"goal"`
}

// ParseGoalReply extracts the goal from the agent's raw output. The output
// wraps JSON in a markdown code fence, optionally tagged json; bare JSON is
// accepted too.
func ParseGoalReply(raw string) (*domain.Goal, error) {
	text := stripFences(raw)

	var payload goalPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, ErrInvalidReply
	}
	if !payload.Success {
		return nil, &ServerError{Message: payload.Message}
	}
	if payload.Goal == nil {
		return nil, &ServerError{}
	}
	return &domain.Goal{
		Title:          payload.Goal.Title,
		TargetAmount:   payload.Goal.TargetAmount,
		CurrentAmount:  payload.Goal.CurrentAmount,
		DurationMonths: payload.Goal.DurationMonths,
	}, nil
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
