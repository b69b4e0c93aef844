package slackbot

import (
	"context"
	"strings"
	"testing"

	"github.com/brainstorm-platform/idea-engine/internal/engine"
	"github.com/brainstorm-platform/idea-engine/internal/llm"
	"github.com/brainstorm-platform/idea-engine/internal/rag"
	"github.com/brainstorm-platform/idea-engine/internal/store"
	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	messages []string
	nextTS   string
}

func (f *fakeMessenger) BotID() string { return "UBOT" }

func (f *fakeMessenger) SendMessage(_, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeMessenger) SendMessageTS(_, message string) (string, error) {
	f.messages = append(f.messages, message)
	return f.nextTS, nil
}

func (f *fakeMessenger) last() string {
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	if req.MaxTokens == 300 {
		return "1. What annoys your regulars?\n2. What is free to try?", nil
	}
	return `Idea 1: Stamp rally
Problem:
Repeat visits drop off.
Solution:
Digital stamp card.
Expected Effect:
More returns.
Technique:
SCAMPER
Analysis:
Strengths: cheap
Weaknesses: copyable
Opportunities: partners
Threats: fatigue`, nil
}

func newTestBot(t *testing.T) (*MessageHandler, *ConfirmHandler, *fakeMessenger) {
	t.Helper()
	ephemeral, err := rag.NewStore(t.TempDir(), nil, nil)
	require.NoError(t, err)
	eng := engine.New(store.NewMemoryStore(), stubGenerator{}, ephemeral, nil, nil, engine.DefaultConfig(), nil)

	messenger := &fakeMessenger{nextTS: "1234.5678"}
	confirm := NewConfirmHandler(messenger, eng, nil)
	handler := NewMessageHandler(messenger, eng, confirm, nil)
	confirm.OnDeleted(handler.ClearSession)
	return handler, confirm, messenger
}

func mention(text string) *slackevents.AppMentionEvent {
	return &slackevents.AppMentionEvent{Channel: "C1", Text: "<@UBOT> " + text}
}

func TestChannelWorkflow(t *testing.T) {
	ctx := context.Background()
	handler, confirm, messenger := newTestBot(t)

	require.NoError(t, handler.HandleAppMention(ctx, mention("start")))
	assert.Contains(t, messenger.last(), "session started")

	require.NoError(t, handler.HandleAppMention(ctx, mention("purpose grow the cafe")))
	require.NoError(t, handler.HandleAppMention(ctx, mention("warmup")))
	assert.Contains(t, messenger.last(), "Warmup questions")
	assert.Contains(t, messenger.last(), "What annoys your regulars?")

	require.NoError(t, handler.HandleAppMention(ctx, mention("ready")))
	require.NoError(t, handler.HandleAppMention(ctx, mention("associations coupon, stamp, sns")))
	assert.Contains(t, messenger.last(), "Recorded 3 associations")

	require.NoError(t, handler.HandleAppMention(ctx, mention("ideas")))
	assert.Contains(t, messenger.last(), "Stamp rally")
	assert.Contains(t, messenger.last(), "Strengths:")

	// done prompts for confirmation, the ✅ reaction executes it.
	require.NoError(t, handler.HandleAppMention(ctx, mention("done")))
	assert.Contains(t, messenger.last(), "React with")

	require.NoError(t, confirm.HandleReaction(ctx, &slackevents.ReactionAddedEvent{
		User:     "U1",
		Reaction: "white_check_mark",
		Item:     slackevents.Item{Channel: "C1", Timestamp: "1234.5678"},
	}))
	assert.Contains(t, messenger.last(), "deleted")

	// The channel mapping is gone; workflow commands want a new start.
	require.NoError(t, handler.HandleAppMention(ctx, mention("status")))
	assert.Contains(t, messenger.last(), "No session")
}

func TestCommandsRequireSession(t *testing.T) {
	ctx := context.Background()
	handler, _, messenger := newTestBot(t)

	require.NoError(t, handler.HandleAppMention(ctx, mention("ideas")))
	assert.Contains(t, messenger.last(), "Start one with `start`")
}

func TestPreconditionSurfacesAsReply(t *testing.T) {
	ctx := context.Background()
	handler, _, messenger := newTestBot(t)

	require.NoError(t, handler.HandleAppMention(ctx, mention("start")))
	require.NoError(t, handler.HandleAppMention(ctx, mention("warmup")))
	assert.Contains(t, messenger.last(), "Can't do that yet")
}

func TestRejectedDeleteKeepsSession(t *testing.T) {
	ctx := context.Background()
	handler, confirm, messenger := newTestBot(t)

	require.NoError(t, handler.HandleAppMention(ctx, mention("start")))
	require.NoError(t, handler.HandleAppMention(ctx, mention("done")))

	require.NoError(t, confirm.HandleReaction(ctx, &slackevents.ReactionAddedEvent{
		User:     "U1",
		Reaction: "x",
		Item:     slackevents.Item{Channel: "C1", Timestamp: "1234.5678"},
	}))
	assert.Contains(t, messenger.last(), "keeping the session")

	require.NoError(t, handler.HandleAppMention(ctx, mention("status")))
	assert.Contains(t, messenger.last(), "Session status")
}

func TestReactionOnUnrelatedMessageIgnored(t *testing.T) {
	ctx := context.Background()
	_, confirm, messenger := newTestBot(t)

	require.NoError(t, confirm.HandleReaction(ctx, &slackevents.ReactionAddedEvent{
		User:     "U1",
		Reaction: "white_check_mark",
		Item:     slackevents.Item{Channel: "C1", Timestamp: "9999.0000"},
	}))
	assert.Empty(t, messenger.messages)
}

func TestSecondStartRefused(t *testing.T) {
	ctx := context.Background()
	handler, _, messenger := newTestBot(t)

	require.NoError(t, handler.HandleAppMention(ctx, mention("start")))
	require.NoError(t, handler.HandleAppMention(ctx, mention("start")))
	assert.Contains(t, messenger.last(), "already running")
}

func TestHelp(t *testing.T) {
	ctx := context.Background()
	handler, _, messenger := newTestBot(t)

	require.NoError(t, handler.HandleAppMention(ctx, mention("help")))
	assert.True(t, strings.Contains(messenger.last(), "Commands"))
}
