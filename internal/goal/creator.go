package goal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"bankassist/internal/chat"
	"bankassist/internal/domain"
	"bankassist/internal/metrics"
	"bankassist/internal/webhook"
)

// CreateErrorMessage is shown for failures that are neither a server refusal
// nor a format problem.
const CreateErrorMessage = "Произошла ошибка при создании цели"

const (
	refineTemplate = "Предыдущий запрос: %s\nПредыдущий результат: %s\nНовый запрос (изменение цели): %s"

	discussTemplate = "Контекст цели пользователя:\n- Цель: %s\n- Целевая сумма: %s тенге\n- Уже накоплено: %s тенге\n- Срок накопления: %d месяцев\n\nВопрос пользователя: %s"
)

// GoalService is the goal webhook surface used by the creator.
type GoalService interface {
	CreateGoal(ctx context.Context, chatInput, sessionID string) (string, error)
	GenerateImage(ctx context.Context, prompt string) string
}

// ChatSender forwards goal discussion questions through the regular chat
// webhook.
type ChatSender interface {
	SendChat(ctx context.Context, req webhook.ChatRequest) (string, error)
}

// Creator runs the goal creation flow: prompt, parse, plan, illustrate, then
// optionally refine or discuss. One goal is held at a time; the session id is
// fixed for the creator's lifetime so refinements share agent memory.
type Creator struct {
	goals   GoalService
	chat    ChatSender
	session string
	logger  *slog.Logger

	mu         sync.Mutex
	goal       *domain.Goal
	plan       domain.SavingsPlan
	lastPrompt string
	lastRaw    string
}

func NewCreator(goals GoalService, chatSender ChatSender, logger *slog.Logger) *Creator {
	return &Creator{
		goals:   goals,
		chat:    chatSender,
		session: chat.NewSessionID(),
		logger:  logger,
	}
}

func (c *Creator) SessionID() string { return c.session }

// Goal returns the current goal and its plan, or nil when none is set.
func (c *Creator) Goal() (*domain.Goal, domain.SavingsPlan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goal, c.plan
}

// Create builds a goal from a fresh prompt.
func (c *Creator) Create(ctx context.Context, prompt string) (*domain.Goal, domain.SavingsPlan, error) {
	return c.submit(ctx, prompt, prompt)
}

// Refine resubmits with the previous exchange as context so the agent edits
// the existing goal instead of starting over.
func (c *Creator) Refine(ctx context.Context, prompt string) (*domain.Goal, domain.SavingsPlan, error) {
	c.mu.Lock()
	lastPrompt, lastRaw := c.lastPrompt, c.lastRaw
	c.mu.Unlock()

	if lastRaw == "" {
		return c.submit(ctx, prompt, prompt)
	}
	chatInput := fmt.Sprintf(refineTemplate, lastPrompt, lastRaw, prompt)
	return c.submit(ctx, chatInput, prompt)
}

func (c *Creator) submit(ctx context.Context, chatInput, prompt string) (*domain.Goal, domain.SavingsPlan, error) {
	raw, err := c.goals.CreateGoal(ctx, chatInput, c.session)
	if err != nil {
		c.logger.Warn("goal creation failed", "err", err)
		return nil, domain.SavingsPlan{}, fmt.Errorf("create goal: %w", err)
	}

	g, err := ParseGoalReply(raw)
	if err != nil {
		var serverErr *ServerError
		if errors.As(err, &serverErr) {
			c.logger.Info("goal refused by agent", "message", serverErr.Error())
		} else {
			c.logger.Warn("goal reply unreadable", "err", err)
		}
		return nil, domain.SavingsPlan{}, err
	}

	g.ImageURL = c.goals.GenerateImage(ctx, g.Title)
	plan := BuildPlan(*g)

	c.mu.Lock()
	c.goal = g
	c.plan = plan
	c.lastPrompt = prompt
	c.lastRaw = raw
	c.mu.Unlock()

	metrics.GoalsCreated.Inc()
	c.logger.Info("goal created",
		"title", g.Title,
		"target", g.TargetAmount,
		"months", g.DurationMonths,
	)
	return g, plan, nil
}

// Discuss asks a question about the current goal through the chat webhook,
// prefixed with the goal's parameters so the agent answers in context.
func (c *Creator) Discuss(ctx context.Context, question string) (string, error) {
	c.mu.Lock()
	g := c.goal
	c.mu.Unlock()
	if g == nil {
		return "", errors.New("no goal to discuss")
	}

	text := fmt.Sprintf(discussTemplate,
		g.Title,
		g.TargetAmount.String(),
		g.CurrentAmount.String(),
		g.DurationMonths,
		question,
	)
	reply, err := c.chat.SendChat(ctx, webhook.ChatRequest{Text: text, SessionID: c.session})
	if err != nil {
		return "", fmt.Errorf("discuss goal: %w", err)
	}
	return reply, nil
}

// Reset discards the current goal and refinement context.
func (c *Creator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.goal = nil
	c.plan = domain.SavingsPlan{}
	c.lastPrompt = ""
	c.lastRaw = ""
}
