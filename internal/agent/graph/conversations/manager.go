package conversations

import (
	"strings"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
)

// DefaultHistoryTurns is used when no window is configured.
const DefaultHistoryTurns = 4

type MessagesManager struct {
	historyTurns int
}

func NewMessagesManager(config model.ConversationConfig) *MessagesManager {
	n := config.HistoryTurns
	if n < 0 {
		n = DefaultHistoryTurns
	}
	return &MessagesManager{historyTurns: n}
}

// Normalize trims inbound turns and drops empty ones, keeping order.
func (cm *MessagesManager) Normalize(turns []model.ChatTurn) []model.ChatTurn {
	out := make([]model.ChatTurn, 0, len(turns))
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		source := strings.ToLower(strings.TrimSpace(t.Source))
		if source != model.SourceUser {
			source = model.SourceAgent
		}
		out = append(out, model.ChatTurn{Source: source, Content: content})
	}
	return out
}

// ClassifierContext splits turns into the effective query (the last user turn)
// and the window of turns before it that the classifier may see.
func (cm *MessagesManager) ClassifierContext(turns []model.ChatTurn) (history []model.ChatTurn, query string) {
	last := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].IsUser() {
			last = i
			break
		}
	}
	if last < 0 {
		return nil, ""
	}
	return trimTail(turns[:last], cm.historyTurns), strings.TrimSpace(turns[last].Content)
}

// ====================== Helper function ======================
func trimTail(turns []model.ChatTurn, maxTurns int) []model.ChatTurn {
	if maxTurns <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	result := make([]model.ChatTurn, len(turns))
	copy(result, turns)
	return result
}
