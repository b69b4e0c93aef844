// Package slackbot drives the ideation workflow from Slack. Each channel
// holds at most one active session, advanced through mention commands.
package slackbot

import (
	"fmt"

	"github.com/slack-go/slack"
)

type Client struct {
	api   *slack.Client
	botID string
}

func NewClient(token string) (*Client, error) {
	api := slack.New(token)

	authTest, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack auth test: %w", err)
	}

	return &Client{
		api:   api,
		botID: authTest.UserID,
	}, nil
}

func (c *Client) BotID() string {
	return c.botID
}

func (c *Client) SendMessage(channelID, message string) error {
	_, _, err := c.api.PostMessage(
		channelID,
		slack.MsgOptionText(message, false),
	)
	return err
}

// SendMessageTS posts a message and returns its timestamp so reactions
// on it can be matched later.
func (c *Client) SendMessageTS(channelID, message string) (string, error) {
	_, timestamp, err := c.api.PostMessage(
		channelID,
		slack.MsgOptionText(message, false),
	)
	return timestamp, err
}
