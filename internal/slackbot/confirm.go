package slackbot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/brainstorm-platform/idea-engine/internal/engine"
	"github.com/slack-go/slack/slackevents"
)

type pendingDelete struct {
	channelID string
	sessionID string
}

// ConfirmHandler resolves reaction-based delete confirmations. A `done`
// command stores the prompt message timestamp here; the eventual ✅ or ❌
// reaction on that message decides the session's fate.
type ConfirmHandler struct {
	client Messenger
	engine *engine.Engine
	logger *slog.Logger

	// set after construction to break the handler cycle
	onDeleted func(channelID string)

	mu      sync.Mutex
	pending map[string]pendingDelete // messageTS -> pending delete
}

func NewConfirmHandler(client Messenger, eng *engine.Engine, logger *slog.Logger) *ConfirmHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfirmHandler{
		client:  client,
		engine:  eng,
		logger:  logger,
		pending: make(map[string]pendingDelete),
	}
}

// OnDeleted registers a callback fired after a confirmed delete.
func (h *ConfirmHandler) OnDeleted(fn func(channelID string)) {
	h.onDeleted = fn
}

// StorePendingDelete records a delete awaiting confirmation.
func (h *ConfirmHandler) StorePendingDelete(messageTS, channelID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending[messageTS] = pendingDelete{channelID: channelID, sessionID: sessionID}
}

func (h *ConfirmHandler) take(messageTS string) (pendingDelete, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pending[messageTS]
	if ok {
		delete(h.pending, messageTS)
	}
	return p, ok
}

// HandleReaction processes reactions added to confirmation prompts.
// Reactions on any other message are ignored.
func (h *ConfirmHandler) HandleReaction(ctx context.Context, event *slackevents.ReactionAddedEvent) error {
	if event.User == h.client.BotID() {
		return nil
	}

	switch event.Reaction {
	case "white_check_mark", "heavy_check_mark", "✅":
		p, ok := h.take(event.Item.Timestamp)
		if !ok {
			return nil
		}
		return h.confirmDelete(ctx, p)
	case "x", "❌":
		p, ok := h.take(event.Item.Timestamp)
		if !ok {
			return nil
		}
		return h.client.SendMessage(p.channelID, "Okay, keeping the session. Carry on!")
	}

	return nil
}

func (h *ConfirmHandler) confirmDelete(ctx context.Context, p pendingDelete) error {
	if err := h.engine.Delete(ctx, p.sessionID); err != nil {
		h.logger.Error("failed to delete session", "session_id", p.sessionID, "error", err)
		return h.client.SendMessage(p.channelID, "Failed to delete the session, please try `done` again.")
	}

	if h.onDeleted != nil {
		h.onDeleted(p.channelID)
	}
	return h.client.SendMessage(p.channelID, "🗑️ Session deleted. Start a new one anytime with `start`.")
}
