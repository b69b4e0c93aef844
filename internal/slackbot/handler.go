package slackbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/brainstorm-platform/idea-engine/internal/engine"
	"github.com/brainstorm-platform/idea-engine/internal/models"
	"github.com/slack-go/slack/slackevents"
)

// Messenger is the outbound Slack surface the handlers post through.
type Messenger interface {
	BotID() string
	SendMessage(channelID, message string) error
	SendMessageTS(channelID, message string) (string, error)
}

// MessageHandler maps mention commands onto engine operations. Sessions are
// tracked per channel so a team can run one ideation flow per channel.
type MessageHandler struct {
	client  Messenger
	engine  *engine.Engine
	confirm *ConfirmHandler
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]string // channelID -> sessionID
}

func NewMessageHandler(client Messenger, eng *engine.Engine, confirm *ConfirmHandler, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{
		client:   client,
		engine:   eng,
		confirm:  confirm,
		logger:   logger,
		sessions: make(map[string]string),
	}
}

func (h *MessageHandler) sessionFor(channelID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.sessions[channelID]
	return id, ok
}

func (h *MessageHandler) setSession(channelID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[channelID] = sessionID
}

// ClearSession forgets the channel's session. Called after a confirmed delete.
func (h *MessageHandler) ClearSession(channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, channelID)
}

func (h *MessageHandler) HandleAppMention(ctx context.Context, event *slackevents.AppMentionEvent) error {
	text := strings.TrimSpace(strings.Replace(event.Text, "<@"+h.client.BotID()+">", "", 1))

	switch {
	case strings.HasPrefix(text, "help"), text == "":
		return h.sendHelpMessage(event.Channel)

	case strings.HasPrefix(text, "start"):
		return h.handleStart(ctx, event.Channel)

	case strings.HasPrefix(text, "purpose"):
		purpose := strings.TrimSpace(strings.TrimPrefix(text, "purpose"))
		return h.handlePurpose(ctx, event.Channel, purpose)

	case strings.HasPrefix(text, "warmup"):
		return h.handleWarmup(ctx, event.Channel)

	case strings.HasPrefix(text, "ready"):
		return h.handleReady(ctx, event.Channel)

	case strings.HasPrefix(text, "associations"):
		raw := strings.TrimSpace(strings.TrimPrefix(text, "associations"))
		return h.handleAssociations(ctx, event.Channel, raw)

	case strings.HasPrefix(text, "ideas"):
		return h.handleIdeas(ctx, event.Channel)

	case strings.HasPrefix(text, "status"):
		return h.handleStatus(ctx, event.Channel)

	case strings.HasPrefix(text, "done"), strings.HasPrefix(text, "delete"):
		return h.handleDone(ctx, event.Channel)
	}

	return h.client.SendMessage(event.Channel, "I don't know that command. Try `help`.")
}

func (h *MessageHandler) handleStart(ctx context.Context, channelID string) error {
	if id, ok := h.sessionFor(channelID); ok {
		if _, err := h.engine.Get(ctx, id); err == nil {
			return h.client.SendMessage(channelID,
				"A session is already running in this channel. Finish it with `done` first.")
		}
		h.ClearSession(channelID)
	}

	session, err := h.engine.Create(ctx)
	if err != nil {
		h.logger.Error("failed to create session", "channel", channelID, "error", err)
		return h.client.SendMessage(channelID, "Failed to start a session, please try again.")
	}

	h.setSession(channelID, session.ID)
	return h.client.SendMessage(channelID,
		"🚀 Ideation session started!\n\nFirst, tell me what you want ideas for:\n`purpose [what you are trying to achieve]`")
}

func (h *MessageHandler) handlePurpose(ctx context.Context, channelID, purpose string) error {
	id, ok := h.sessionFor(channelID)
	if !ok {
		return h.client.SendMessage(channelID, "No session in this channel yet. Start one with `start`.")
	}
	if purpose == "" {
		return h.client.SendMessage(channelID, "Please provide a purpose: `purpose [what you are trying to achieve]`")
	}

	if _, err := h.engine.SetPurpose(ctx, id, purpose); err != nil {
		return h.replyEngineError(channelID, err)
	}
	return h.client.SendMessage(channelID,
		"Got it. Ask me for `warmup` questions to loosen up, then say `ready` when you want to move on.")
}

func (h *MessageHandler) handleWarmup(ctx context.Context, channelID string) error {
	id, ok := h.sessionFor(channelID)
	if !ok {
		return h.client.SendMessage(channelID, "No session in this channel yet. Start one with `start`.")
	}

	questions, err := h.engine.GenerateWarmup(ctx, id)
	if err != nil {
		return h.replyEngineError(channelID, err)
	}

	var b strings.Builder
	b.WriteString("*Warmup questions:*\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	b.WriteString("\nThink them over, then say `ready`.")
	return h.client.SendMessage(channelID, b.String())
}

func (h *MessageHandler) handleReady(ctx context.Context, channelID string) error {
	id, ok := h.sessionFor(channelID)
	if !ok {
		return h.client.SendMessage(channelID, "No session in this channel yet. Start one with `start`.")
	}

	if err := h.engine.ConfirmWarmup(ctx, id); err != nil {
		return h.replyEngineError(channelID, err)
	}
	return h.client.SendMessage(channelID,
		"Now share free associations around your purpose:\n`associations word1, word2, word3, ...`")
}

func (h *MessageHandler) handleAssociations(ctx context.Context, channelID, raw string) error {
	id, ok := h.sessionFor(channelID)
	if !ok {
		return h.client.SendMessage(channelID, "No session in this channel yet. Start one with `start`.")
	}

	items := strings.Split(raw, ",")
	session, err := h.engine.SetAssociations(ctx, id, items)
	if err != nil {
		return h.replyEngineError(channelID, err)
	}
	return h.client.SendMessage(channelID,
		fmt.Sprintf("Recorded %d associations. Ask for `ideas` when you're ready.", len(session.Associations)))
}

func (h *MessageHandler) handleIdeas(ctx context.Context, channelID string) error {
	id, ok := h.sessionFor(channelID)
	if !ok {
		return h.client.SendMessage(channelID, "No session in this channel yet. Start one with `start`.")
	}

	if err := h.client.SendMessage(channelID, "💡 Generating ideas, this can take a moment..."); err != nil {
		h.logger.Warn("failed to send progress message", "error", err)
	}

	ideas, err := h.engine.GenerateIdeas(ctx, id)
	if err != nil {
		return h.replyEngineError(channelID, err)
	}

	return h.client.SendMessage(channelID, formatIdeas(ideas))
}

func (h *MessageHandler) handleStatus(ctx context.Context, channelID string) error {
	id, ok := h.sessionFor(channelID)
	if !ok {
		return h.client.SendMessage(channelID, "No session in this channel.")
	}

	session, err := h.engine.Get(ctx, id)
	if err != nil {
		return h.replyEngineError(channelID, err)
	}

	msg := fmt.Sprintf("*Session status:* %s", session.Stage)
	if session.Purpose != "" {
		msg += fmt.Sprintf("\nPurpose: %s", session.Purpose)
	}
	if len(session.Associations) > 0 {
		msg += fmt.Sprintf("\nAssociations: %s", strings.Join(session.Associations, ", "))
	}
	return h.client.SendMessage(channelID, msg)
}

func (h *MessageHandler) handleDone(ctx context.Context, channelID string) error {
	id, ok := h.sessionFor(channelID)
	if !ok {
		return h.client.SendMessage(channelID, "No session in this channel.")
	}

	ts, err := h.client.SendMessageTS(channelID,
		"This will delete the session and all its working data. React with ✅ to confirm or ❌ to keep going.")
	if err != nil {
		return err
	}

	h.confirm.StorePendingDelete(ts, channelID, id)
	return nil
}

func (h *MessageHandler) replyEngineError(channelID string, err error) error {
	switch {
	case engine.IsNotFound(err):
		h.ClearSession(channelID)
		return h.client.SendMessage(channelID, "That session no longer exists. Start a new one with `start`.")
	case engine.IsPrecondition(err), engine.IsValidation(err):
		return h.client.SendMessage(channelID, fmt.Sprintf("Can't do that yet: %v", err))
	case engine.IsGeneration(err):
		h.logger.Error("generation failed", "channel", channelID, "error", err)
		return h.client.SendMessage(channelID, "Generation failed, please try again.")
	}
	h.logger.Error("command failed", "channel", channelID, "error", err)
	return h.client.SendMessage(channelID, "Something went wrong, please try again.")
}

func formatIdeas(ideas []models.Idea) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("*Generated %d idea(s):*\n\n", len(ideas)))
	for i, idea := range ideas {
		fmt.Fprintf(&b, "*%d. %s*\n%s\n", i+1, idea.Title, idea.Description)
		if idea.Swot != nil {
			fmt.Fprintf(&b, "_Strengths:_ %s\n", idea.Swot.Strengths)
			fmt.Fprintf(&b, "_Weaknesses:_ %s\n", idea.Swot.Weaknesses)
			fmt.Fprintf(&b, "_Opportunities:_ %s\n", idea.Swot.Opportunities)
			fmt.Fprintf(&b, "_Threats:_ %s\n", idea.Swot.Threats)
		}
		b.WriteString("\n")
	}
	b.WriteString("Say `done` when you're finished with this session.")
	return b.String()
}

func (h *MessageHandler) sendHelpMessage(channelID string) error {
	helpText := `*Idea Engine Bot*

I run structured ideation sessions, one per channel.

*Commands:*
- start - Begin a new session
- purpose [text] - Set what you want ideas for
- warmup - Get warmup questions
- ready - Confirm warmup and move on
- associations a, b, c - Share free associations
- ideas - Generate and analyze ideas
- status - Show where the session stands
- done - Delete the session (asks for confirmation)
- help - Show this help

*Workflow:*
1. start
2. purpose [your goal]
3. warmup, then ready
4. associations [comma separated words]
5. ideas
6. done`

	return h.client.SendMessage(channelID, helpText)
}
