package slackbot

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// Server verifies and dispatches Slack Events API callbacks.
type Server struct {
	messageHandler *MessageHandler
	confirmHandler *ConfirmHandler
	signingSecret  string
	logger         *slog.Logger
}

func NewServer(messageHandler *MessageHandler, confirmHandler *ConfirmHandler, signingSecret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		messageHandler: messageHandler,
		confirmHandler: confirmHandler,
		signingSecret:  signingSecret,
		logger:         logger,
	}
}

// HandleEvents is the Events API endpoint. Mount it at POST /slack/events.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("failed to read event body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sv, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
	if err != nil {
		s.logger.Error("failed to create secrets verifier", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if _, err := sv.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := sv.Ensure(); err != nil {
		s.logger.Warn("event signature verification failed", "error", err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		s.logger.Error("failed to parse event", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if eventsAPIEvent.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text")
		w.Write([]byte(challenge.Challenge))
		return
	}

	if eventsAPIEvent.Type == slackevents.CallbackEvent {
		ctx := context.Background()

		switch ev := eventsAPIEvent.InnerEvent.Data.(type) {
		case *slackevents.AppMentionEvent:
			if err := s.messageHandler.HandleAppMention(ctx, ev); err != nil {
				s.logger.Error("failed to handle mention", "error", err)
			}
		case *slackevents.ReactionAddedEvent:
			if err := s.confirmHandler.HandleReaction(ctx, ev); err != nil {
				s.logger.Error("failed to handle reaction", "error", err)
			}
		default:
			s.logger.Debug("ignoring event", "type", eventsAPIEvent.InnerEvent.Type)
		}
	}

	w.WriteHeader(http.StatusOK)
}
