package webhook

import (
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/garyellow/codered-bot-go/internal/config"
)

// Messenger sends replies through the LINE Messaging API.
type Messenger interface {
	Reply(replyToken string, texts []string) error
	ShowLoading(chatID string) error
}

// lineMessenger adapts the generated Messaging API client.
type lineMessenger struct {
	api *messaging_api.MessagingApiAPI
}

// NewMessenger creates a Messaging API client for the channel token. Each
// API call is bounded by config.SendMessage.
func NewMessenger(channelToken string) (Messenger, error) {
	api, err := messaging_api.NewMessagingApiAPI(channelToken,
		messaging_api.WithHTTPClient(&http.Client{Timeout: config.SendMessage}),
	)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}
	return lineMessenger{api: api}, nil
}

func (m lineMessenger) Reply(replyToken string, texts []string) error {
	messages := make([]messaging_api.MessageInterface, 0, len(texts))
	for _, t := range texts {
		messages = append(messages, &messaging_api.TextMessage{Text: t})
	}
	_, err := m.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
	return err
}

// ShowLoading shows the typing indicator. LINE accepts 5-60 seconds in
// steps of 5; 60 matches the turn budget.
func (m lineMessenger) ShowLoading(chatID string) error {
	_, err := m.api.ShowLoadingAnimation(&messaging_api.ShowLoadingAnimationRequest{
		ChatId:         chatID,
		LoadingSeconds: 60,
	})
	return err
}
